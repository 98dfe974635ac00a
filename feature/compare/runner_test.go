package compare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"s3-compare/core/engine"
	enginemocks "s3-compare/core/engine/mocks"
	"s3-compare/core/inventory"
	storagemocks "s3-compare/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeEngine emulates the query engine's set semantics for two inventory
// tables holding the configured key sets. Extraction queries are recognized
// by the null-column they select on; DDL statements succeed without effect.
type fakeEngine struct {
	left      []string
	right     []string
	submitted []string
	results   map[string][][]string
}

func newFakeEngine(left, right []string) *fakeEngine {
	return &fakeEngine{left: left, right: right, results: map[string][][]string{}}
}

func (f *fakeEngine) Submit(ctx context.Context, sql string) (string, error) {
	f.submitted = append(f.submitted, sql)
	handle := fmt.Sprintf("q-%d", len(f.submitted))

	if strings.Contains(sql, "SELECT DISTINCT") {
		switch {
		case strings.Contains(sql, "right_key IS NULL"):
			f.results[handle] = diffRows(f.left, f.right)
		case strings.Contains(sql, "left_key IS NULL"):
			f.results[handle] = diffRows(f.right, f.left)
		}
	}
	return handle, nil
}

func (f *fakeEngine) Poll(ctx context.Context, handle string) (engine.QueryStatus, error) {
	return engine.QueryStatus{State: engine.StatusSucceeded}, nil
}

func (f *fakeEngine) Fetch(ctx context.Context, handle string, fn func(row []string) error) error {
	for _, row := range f.results[handle] {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// diffRows returns a\b, deduplicated and sorted, the way the DISTINCT +
// ORDER BY extraction query produces it.
func diffRows(a, b []string) [][]string {
	bset := make(map[string]struct{}, len(b))
	for _, k := range b {
		bset[k] = struct{}{}
	}
	seen := make(map[string]struct{}, len(a))
	var keys []string
	for _, k := range a {
		if _, inB := bset[k]; inB {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k})
	}
	return rows
}

func reachableStorage() *storagemocks.Client {
	client := new(storagemocks.Client)
	client.On("BucketExists", mock.Anything, mock.Anything).Return(true, nil)
	return client
}

func testRunner(t *testing.T, eng engine.Client) *Runner {
	t.Helper()
	return &Runner{
		Storage: reachableStorage(),
		Engine:  eng,
		Wait:    engine.WaitConfig{PollInterval: time.Millisecond, Timeout: time.Second},
		Left: inventory.Inventory{
			Source:         inventory.Location{Bucket: "left-inv", Path: "inv/left-data"},
			ComparedBucket: "left-data",
			Work:           inventory.WorkArea{Bucket: "work", Path: "cmp"},
		},
		Right: inventory.Inventory{
			Source:         inventory.Location{Bucket: "right-inv", Path: "inv/right-data"},
			ComparedBucket: "right-data",
			Work:           inventory.WorkArea{Bucket: "work", Path: "cmp"},
		},
		Workdir: t.TempDir(),
		Log:     zap.NewNop(),
	}
}

func runAndRead(t *testing.T, r *Runner, opts Options) string {
	t.Helper()
	path, err := r.Run(context.Background(), opts)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRun_MissingKeysPerDirection(t *testing.T) {
	left := []string{"a", "b", "c"}
	right := []string{"b", "c", "d"}

	t.Run("MissingInRight", func(t *testing.T) {
		r := testRunner(t, newFakeEngine(left, right))
		got := runAndRead(t, r, Options{MissingIn: TargetRight, SkipSetup: true})
		assert.Equal(t, "a\n", got)
	})

	t.Run("MissingInLeft", func(t *testing.T) {
		r := testRunner(t, newFakeEngine(left, right))
		got := runAndRead(t, r, Options{MissingIn: TargetLeft, SkipSetup: true})
		assert.Equal(t, "d\n", got)
	})
}

func TestRun_SymmetricDifference(t *testing.T) {
	left := []string{"a", "b", "c", "x"}
	right := []string{"b", "c", "d", "y"}

	r1 := testRunner(t, newFakeEngine(left, right))
	missingInRight := runAndRead(t, r1, Options{MissingIn: TargetRight, SkipSetup: true})

	r2 := testRunner(t, newFakeEngine(left, right))
	missingInLeft := runAndRead(t, r2, Options{MissingIn: TargetLeft, SkipSetup: true})

	// The two directions reconstruct the symmetric difference with no
	// overlap and no omission.
	assert.Equal(t, "a\nx\n", missingInRight)
	assert.Equal(t, "d\ny\n", missingInLeft)
}

func TestRun_IdenticalSetsYieldEmptyFile(t *testing.T) {
	keys := []string{"a", "b", "c"}

	for _, target := range []Target{TargetLeft, TargetRight} {
		t.Run(string(target), func(t *testing.T) {
			r := testRunner(t, newFakeEngine(keys, keys))
			got := runAndRead(t, r, Options{MissingIn: target, SkipSetup: true})
			assert.Empty(t, got)
		})
	}
}

func TestRun_EmptyRightBucket(t *testing.T) {
	left := []string{"a", "b"}

	r := testRunner(t, newFakeEngine(left, nil))
	assert.Equal(t, "a\nb\n", runAndRead(t, r, Options{MissingIn: TargetRight, SkipSetup: true}))

	r = testRunner(t, newFakeEngine(left, nil))
	assert.Empty(t, runAndRead(t, r, Options{MissingIn: TargetLeft, SkipSetup: true}))
}

func TestRun_DuplicateInventoryKeysNotMultiplied(t *testing.T) {
	left := []string{"a", "a", "b"}
	right := []string{"b"}

	r := testRunner(t, newFakeEngine(left, right))
	got := runAndRead(t, r, Options{MissingIn: TargetRight, SkipSetup: true})
	assert.Equal(t, "a\n", got)
}

func TestRun_IdempotentOutput(t *testing.T) {
	left := []string{"c", "a", "b"}
	right := []string{"b"}

	r1 := testRunner(t, newFakeEngine(left, right))
	first := runAndRead(t, r1, Options{MissingIn: TargetRight, SkipSetup: true})

	r2 := testRunner(t, newFakeEngine(left, right))
	second := runAndRead(t, r2, Options{MissingIn: TargetRight, SkipSetup: true})

	assert.Equal(t, first, second)
	assert.Equal(t, "a\nc\n", first)
}

func TestRun_OutputFileNaming(t *testing.T) {
	r := testRunner(t, newFakeEngine(nil, nil))
	path, err := r.Run(context.Background(), Options{MissingIn: TargetRight, SkipSetup: true})
	require.NoError(t, err)
	assert.Equal(t, "00-find_table_missing_keys", filepath.Base(path))
}

func TestRun_SQLShape(t *testing.T) {
	eng := newFakeEngine([]string{"a"}, []string{"b"})
	r := testRunner(t, eng)

	_, err := r.Run(context.Background(), Options{MissingIn: TargetRight, SkipSetup: true})
	require.NoError(t, err)

	joined := strings.Join(eng.submitted, "\n---\n")
	assert.Contains(t, joined, "DROP TABLE IF EXISTS s3_inventory_join_left_data_right_data")
	assert.Contains(t, joined, "FULL OUTER JOIN")
	assert.Contains(t, joined, "USING (key)")
	assert.Contains(t, joined, "SELECT DISTINCT left_key AS key")
	assert.Contains(t, joined, "right_key IS NULL AND left_key IS NOT NULL")
	assert.Contains(t, joined, "ORDER BY key")
	assert.NotContains(t, joined, "INNER JOIN")
}

func TestRun_InvalidTarget(t *testing.T) {
	eng := newFakeEngine(nil, nil)
	r := testRunner(t, eng)

	_, err := r.Run(context.Background(), Options{MissingIn: Target("sideways")})
	assert.Error(t, err)
	assert.Empty(t, eng.submitted)
}

func TestRun_UnreachableBucketFailsBeforeSubmission(t *testing.T) {
	eng := newFakeEngine(nil, nil)
	r := testRunner(t, eng)

	client := new(storagemocks.Client)
	client.On("BucketExists", mock.Anything, mock.Anything).Return(false, nil)
	r.Storage = client

	_, err := r.Run(context.Background(), Options{MissingIn: TargetRight, SkipSetup: true})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
	assert.Empty(t, eng.submitted)
}

func TestRun_TimeoutIsDistinguishable(t *testing.T) {
	eng := new(enginemocks.Client)
	eng.On("Submit", mock.Anything, mock.Anything).Return("q-stuck", nil)
	eng.On("Poll", mock.Anything, "q-stuck").Return(engine.QueryStatus{State: engine.StatusRunning}, nil)

	r := testRunner(t, eng)
	r.Wait = engine.WaitConfig{PollInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, Timeout: 50 * time.Millisecond}

	_, err := r.Run(context.Background(), Options{MissingIn: TargetRight, SkipSetup: true})
	assert.True(t, errors.Is(err, engine.ErrWaitTimeout), "expected timeout classification, got %v", err)
}

func TestRun_EngineFailureSurfacesReason(t *testing.T) {
	eng := new(enginemocks.Client)
	eng.On("Submit", mock.Anything, mock.Anything).Return("q-1", nil)
	eng.On("Poll", mock.Anything, "q-1").Return(engine.QueryStatus{
		State:  engine.StatusFailed,
		Reason: "HIVE_CANNOT_OPEN_SPLIT: access denied",
	}, nil)

	r := testRunner(t, eng)
	_, err := r.Run(context.Background(), Options{MissingIn: TargetRight, SkipSetup: true})

	var qerr *engine.QueryError
	require.True(t, errors.As(err, &qerr))
	assert.Contains(t, qerr.Reason, "access denied")
}

func TestRun_UnwritableWorkdir(t *testing.T) {
	r := testRunner(t, newFakeEngine(nil, nil))
	// A file where the workdir should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	r.Workdir = filepath.Join(blocker, "nested")

	_, err := r.Run(context.Background(), Options{MissingIn: TargetRight, SkipSetup: true})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "working directory")
}

func TestRun_FullSetupRegistersTablesOverStagedInventories(t *testing.T) {
	eng := newFakeEngine([]string{"a"}, []string{"a"})
	r := testRunner(t, eng)

	client := new(storagemocks.Client)
	client.On("BucketExists", mock.Anything, mock.Anything).Return(true, nil)
	for _, side := range []struct{ invBucket, partition, dataURL string }{
		{"left-inv", "inv/left-data/hive/dt=2026-08-20-00-00/symlink.txt", "s3://left-inv/inv/left-data/data/part-0.parquet"},
		{"right-inv", "inv/right-data/hive/dt=2026-08-20-00-00/symlink.txt", "s3://right-inv/inv/right-data/data/part-0.parquet"},
	} {
		ch := make(chan minio.ObjectInfo, 1)
		ch <- minio.ObjectInfo{Key: side.partition}
		close(ch)
		client.On("ListObjects", mock.Anything, side.invBucket, mock.Anything).Return((<-chan minio.ObjectInfo)(ch))
		client.On("GetObject", mock.Anything, side.invBucket, side.partition, mock.Anything).
			Return(io.NopCloser(strings.NewReader(side.dataURL+"\n")), nil)
	}
	client.On("CopyObject", mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)
	client.On("PutObject", mock.Anything, "work", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)
	r.Storage = client

	_, err := r.Run(context.Background(), Options{MissingIn: TargetRight})
	require.NoError(t, err)

	joined := strings.Join(eng.submitted, "\n---\n")
	assert.Contains(t, joined, "CREATE EXTERNAL TABLE s3_inventory_left_data")
	assert.Contains(t, joined, "CREATE EXTERNAL TABLE s3_inventory_right_data")
	// Tables must point at the staged copies, not the live export location.
	assert.Contains(t, joined, "LOCATION 's3://work/cmp/left-data/hive/'")
	assert.Contains(t, joined, "LOCATION 's3://work/cmp/right-data/hive/'")
	assert.Contains(t, joined, "MSCK REPAIR TABLE s3_inventory_left_data")
	assert.Contains(t, joined, "MSCK REPAIR TABLE s3_inventory_right_data")
	client.AssertExpectations(t)
}

func TestRun_UniqueTablesNamespacePerRun(t *testing.T) {
	eng := newFakeEngine(nil, nil)
	r := testRunner(t, eng)

	_, err := r.Run(context.Background(), Options{MissingIn: TargetRight, SkipSetup: true, UniqueTables: true})
	require.NoError(t, err)

	joined := strings.Join(eng.submitted, "\n")
	assert.NotContains(t, joined, "s3_inventory_join_left_data_right_data\n")
	assert.Regexp(t, `s3_inventory_join_left_data_right_data_[0-9a-f]{8}`, joined)
}
