package scene

import "math"

// FrameRate is the NTSC broadcast rate, 29.97fps.
const FrameRate = 30000.0 / 1001.0

// FrameDuration is the length of one frame in seconds at FrameRate.
const FrameDuration = 1001.0 / 30000.0

// TimeToFrameNum converts a time in seconds to a frame index.
// Negative times clamp to frame 0, which happens when the movie start delay
// pushes a silence start before t=0.
func TimeToFrameNum(sec float64) int {
	n := math.Floor(sec / FrameDuration)
	if n < 0 {
		return 0
	}
	return int(n)
}

// FrameNumToTime converts a frame index to the time of its first field in seconds.
func FrameNumToTime(frame int) float64 {
	return float64(frame) * FrameDuration
}
