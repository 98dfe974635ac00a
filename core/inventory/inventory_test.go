package inventory_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"s3-compare/core/inventory"
	"s3-compare/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testInventory() inventory.Inventory {
	return inventory.Inventory{
		Source:         inventory.Location{Bucket: "inv-bucket", Path: "inventories/prod-assets"},
		ComparedBucket: "prod-assets",
		Work:           inventory.WorkArea{Bucket: "work-bucket", Path: "compare-work"},
	}
}

func objectsCh(keys ...string) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		ch <- minio.ObjectInfo{Key: k}
	}
	close(ch)
	return ch
}

func TestRewriteURL(t *testing.T) {
	inv := testInventory()

	got := inv.RewriteURL("s3://inv-bucket/inventories/prod-assets/data/part-00000.parquet")
	assert.Equal(t, "s3://work-bucket/compare-work/prod-assets/data/part-00000.parquet", got)
}

func TestSplitURL(t *testing.T) {
	bucket, key, err := inventory.SplitURL("s3://some-bucket/a/b/c.parquet")
	require.NoError(t, err)
	assert.Equal(t, "some-bucket", bucket)
	assert.Equal(t, "a/b/c.parquet", key)

	_, _, err = inventory.SplitURL("s3://just-a-bucket")
	assert.Error(t, err)

	_, _, err = inventory.SplitURL("")
	assert.Error(t, err)
}

func TestLatestPartition(t *testing.T) {
	inv := testInventory()

	t.Run("PicksNewestByKeyOrder", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("ListObjects", mock.Anything, "inv-bucket", mock.Anything).Return(objectsCh(
			"inventories/prod-assets/hive/dt=2026-08-01-00-00/symlink.txt",
			"inventories/prod-assets/hive/dt=2026-08-15-00-00/symlink.txt",
			"inventories/prod-assets/hive/dt=2026-08-08-00-00/symlink.txt",
		))

		latest, err := inventory.LatestPartition(context.Background(), client, inv)
		require.NoError(t, err)
		assert.Equal(t, "inventories/prod-assets/hive/dt=2026-08-15-00-00/symlink.txt", latest)
	})

	t.Run("NoPartitions", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("ListObjects", mock.Anything, "inv-bucket", mock.Anything).Return(objectsCh())

		_, err := inventory.LatestPartition(context.Background(), client, inv)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no inventory partitions")
	})
}

func TestStage(t *testing.T) {
	inv := testInventory()
	partition := "inventories/prod-assets/hive/dt=2026-08-15-00-00/symlink.txt"
	symlink := strings.Join([]string{
		"s3://inv-bucket/inventories/prod-assets/data/part-00000.parquet",
		"s3://inv-bucket/inventories/prod-assets/data/part-00001.parquet",
		"",
	}, "\n")

	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "inv-bucket", mock.Anything).Return(objectsCh(partition))
	client.On("GetObject", mock.Anything, "inv-bucket", partition, mock.Anything).
		Return(io.NopCloser(strings.NewReader(symlink)), nil)

	var (
		mu     sync.Mutex
		copied []string
	)
	client.On("CopyObject", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			dst := args.Get(1).(minio.CopyDestOptions)
			mu.Lock()
			copied = append(copied, dst.Bucket+"/"+dst.Object)
			mu.Unlock()
		}).
		Return(minio.UploadInfo{}, nil)

	var uploaded string
	client.On("PutObject", mock.Anything, "work-bucket",
		"compare-work/prod-assets/hive/dt=2026-08-15-00-00/symlink.txt",
		mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			body, _ := io.ReadAll(args.Get(3).(io.Reader))
			uploaded = string(body)
		}).
		Return(minio.UploadInfo{}, nil)

	err := inventory.Stage(context.Background(), client, inv, 4, zap.NewNop())
	require.NoError(t, err)

	sort.Strings(copied)
	assert.Equal(t, []string{
		"work-bucket/compare-work/prod-assets/data/part-00000.parquet",
		"work-bucket/compare-work/prod-assets/data/part-00001.parquet",
	}, copied)

	assert.Equal(t,
		"s3://work-bucket/compare-work/prod-assets/data/part-00000.parquet\n"+
			"s3://work-bucket/compare-work/prod-assets/data/part-00001.parquet\n",
		uploaded)

	client.AssertExpectations(t)
}
