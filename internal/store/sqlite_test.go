package store

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwlsn/cutscan/internal/cutlist"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestRun(created time.Time) *Run {
	return &Run{
		ID:          uuid.NewString(),
		Movie:       "/media/movie.ts",
		SilencePath: "/media/movie.sil",
		OutputPath:  "/media/scene.txt",
		Filter:      "0.5,0.2",
		Delay:       0.433,
		Candidates:  2,
		Exact:       1,
		Elapsed:     1500 * time.Millisecond,
		CreatedAt:   created,
	}
}

func createTestRecords() []Record {
	return []Record{
		{
			Record:   cutlist.Record{Index: 0, Mode: cutlist.ModeExact, StartFrame: 299, EndFrame: 360, Target: cutlist.Target{Frame: 330}},
			Kind:     "exact",
			Offset:   62,
			Strategy: "peak-0.3-trimmed",
		},
		{
			Record:   cutlist.Record{Index: 1, Mode: cutlist.ModeRange, StartFrame: 9000, EndFrame: 9031, Target: cutlist.Target{Frame: 9003, Half: true}},
			Kind:     "guess",
			Offset:   -7,
			Strategy: "last-resort",
		},
	}
}

func TestSQLiteStore_SaveRun_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	created := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	run := createTestRun(created)
	require.NoError(t, store.SaveRun(run, createTestRecords()))

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.Movie, got.Movie)
	assert.Equal(t, run.SilencePath, got.SilencePath)
	assert.Equal(t, run.OutputPath, got.OutputPath)
	assert.Equal(t, run.Filter, got.Filter)
	assert.Equal(t, run.Delay, got.Delay)
	assert.Equal(t, 2, got.Candidates)
	assert.Equal(t, 1, got.Exact)
	assert.Equal(t, run.Elapsed, got.Elapsed)
	assert.True(t, got.CreatedAt.Equal(created), "created %v, got %v", created, got.CreatedAt)

	records, err := store.GetRecords(run.ID)
	require.NoError(t, err)
	assert.Equal(t, createTestRecords(), records)
}

func TestSQLiteStore_EmptyOptionalFields(t *testing.T) {
	store := newTestStore(t)

	run := &Run{ID: uuid.NewString(), Movie: "a.ts", SilencePath: "a.sil"}
	require.NoError(t, store.SaveRun(run, nil))

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Filter)
	assert.Empty(t, got.OutputPath)
	assert.False(t, got.CreatedAt.IsZero(), "created_at defaults to now")

	records, err := store.GetRecords(run.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteStore_SaveRun_ReplacesRecords(t *testing.T) {
	store := newTestStore(t)

	run := createTestRun(time.Now())
	require.NoError(t, store.SaveRun(run, createTestRecords()))

	run.Exact = 0
	require.NoError(t, store.SaveRun(run, createTestRecords()[1:]))

	records, err := store.GetRecords(run.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Index)
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = store.GetRecords("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteStore_ListRuns_NewestFirst(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		run := createTestRun(base.Add(time.Duration(i) * time.Hour))
		ids = append(ids, run.ID)
		require.NoError(t, store.SaveRun(run, nil), "save run %d", i)
	}

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, run := range runs {
		assert.Equal(t, ids[2-i], run.ID, "position %d", i)
	}

	limited, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, ids[2], limited[0].ID)
}

func TestSQLiteStore_DeleteRun_RemovesRecords(t *testing.T) {
	store := newTestStore(t)

	run := createTestRun(time.Now())
	require.NoError(t, store.SaveRun(run, createTestRecords()))
	require.NoError(t, store.DeleteRun(run.ID))

	_, err := store.GetRun(run.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count))
	assert.Zero(t, count, "records cascade with the run")

	assert.NoError(t, store.DeleteRun(run.ID), "deleting a missing run succeeds")
}

func TestSQLiteStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "runs.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	run := createTestRun(time.Now())
	require.NoError(t, store.SaveRun(run, createTestRecords()))
	assert.Equal(t, dbPath, store.Path())
	store.Close()

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.GetRecords(run.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSQLiteStore_RejectsNewerSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	_, err = store.db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion+1)
	require.NoError(t, err)
	store.Close()

	_, err = NewSQLiteStore(dbPath)
	assert.Error(t, err)
}

func TestSQLiteStore_WALMode(t *testing.T) {
	store := newTestStore(t)

	var mode string
	require.NoError(t, store.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestSQLiteStore_ConcurrentWriters(t *testing.T) {
	store := newTestStore(t)

	numWorkers := 8
	runsPerWorker := 10

	var wg sync.WaitGroup
	errs := make(chan error, numWorkers*runsPerWorker)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := 0; i < runsPerWorker; i++ {
				run := createTestRun(time.Now())
				run.Movie = fmt.Sprintf("/media/w%d_%d.ts", workerID, i)
				if err := store.SaveRun(run, createTestRecords()); err != nil {
					errs <- fmt.Errorf("worker %d run %d: %w", workerID, i, err)
					return
				}
				if _, err := store.ListRuns(5); err != nil {
					errs <- fmt.Errorf("worker %d list: %w", workerID, err)
					return
				}
			}
		}(w)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, runs, numWorkers*runsPerWorker)
}

func TestCutList(t *testing.T) {
	got := CutList(createTestRecords())
	require.Len(t, got, 2)
	assert.Equal(t, cutlist.Target{Frame: 9003, Half: true}, got[1].Target)
}
