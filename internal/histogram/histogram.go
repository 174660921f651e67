// Package histogram computes the frame dissimilarity signal and gray
// histograms for a directory of extracted field images.
package histogram

import (
	"image"
	"image/color"
	"math"

	"github.com/gwlsn/cutscan/internal/boundary"
)

// ColorBins is the number of bins per channel of the color histogram.
const ColorBins = 12

// GrayBins is the number of intensity bins of a gray histogram.
const GrayBins = 256

// grayScale is the L1 mass of a normalized gray histogram.
const grayScale = 255.0

// Color is a normalized BGR histogram with ColorBins bins per channel.
type Color struct {
	bins [ColorBins][ColorBins][ColorBins]float64
}

// Marginal returns the normalized histogram of one channel
// (0 = blue, 1 = green, 2 = red).
func (h *Color) Marginal(channel int) [ColorBins]float64 {
	var m [ColorBins]float64
	for b := 0; b < ColorBins; b++ {
		for g := 0; g < ColorBins; g++ {
			for r := 0; r < ColorBins; r++ {
				v := h.bins[b][g][r]
				switch channel {
				case 0:
					m[b] += v
				case 1:
					m[g] += v
				default:
					m[r] += v
				}
			}
		}
	}
	return m
}

// Analyze builds the color histogram and gray histogram of one image in a
// single pass over its pixels.
func Analyze(img image.Image) (*Color, boundary.GrayHistogram) {
	hist := &Color{}
	gray := make(boundary.GrayHistogram, GrayBins)

	bounds := img.Bounds()
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := rgb8(img, x, y)
			hist.bins[colorBin(b)][colorBin(g)][colorBin(r)]++
			gray[luma(r, g, b)]++
			total++
		}
	}

	if total == 0 {
		return hist, gray
	}

	for b := range hist.bins {
		for g := range hist.bins[b] {
			for r := range hist.bins[b][g] {
				hist.bins[b][g][r] /= float64(total)
			}
		}
	}
	for i := range gray {
		gray[i] = gray[i] * grayScale / float64(total)
	}

	return hist, gray
}

// Distance returns the dissimilarity of two color histograms on a 0..~1.6
// scale. It is the Euclidean combination of the per-channel 1D earth
// mover's distances in bin units, divided by ColorBins. This is a lower
// bound of the full 3D EMD under an L2 ground distance, and equal to it
// when the change is along a single channel.
func Distance(a, b *Color) float64 {
	var sum float64
	for ch := 0; ch < 3; ch++ {
		d := emd1D(a.Marginal(ch), b.Marginal(ch))
		sum += d * d
	}
	return math.Sqrt(sum) / ColorBins
}

// emd1D is the earth mover's distance between two 1D histograms of equal
// mass: the summed absolute difference of their cumulative sums.
func emd1D(a, b [ColorBins]float64) float64 {
	var cumA, cumB, d float64
	for i := 0; i < ColorBins; i++ {
		cumA += a[i]
		cumB += b[i]
		d += math.Abs(cumA - cumB)
	}
	return d
}

// Signals turns per-image histograms into the distance signal. The result
// has one entry fewer than hists.
func Signals(hists []*Color) boundary.Signal {
	if len(hists) < 2 {
		return boundary.Signal{}
	}
	signal := make(boundary.Signal, len(hists)-1)
	for i := 1; i < len(hists); i++ {
		signal[i-1] = Distance(hists[i-1], hists[i])
	}
	return signal
}

func colorBin(v uint8) int {
	return int(v) * ColorBins / 256
}

// luma matches the BT.601 weights used for BGR to gray conversion.
func luma(r, g, b uint8) int {
	y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return min(int(math.Round(y)), GrayBins-1)
}

func rgb8(img image.Image, x, y int) (r, g, b uint8) {
	switch im := img.(type) {
	case *image.YCbCr:
		yi := im.YOffset(x, y)
		ci := im.COffset(x, y)
		return color.YCbCrToRGB(im.Y[yi], im.Cb[ci], im.Cr[ci])
	case *image.Gray:
		v := im.Pix[im.PixOffset(x, y)]
		return v, v, v
	case *image.RGBA:
		i := im.PixOffset(x, y)
		return im.Pix[i], im.Pix[i+1], im.Pix[i+2]
	}
	r32, g32, b32, _ := img.At(x, y).RGBA()
	return uint8(r32 >> 8), uint8(g32 >> 8), uint8(b32 >> 8)
}
