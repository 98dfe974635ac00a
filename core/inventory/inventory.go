package inventory

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"s3-compare/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultCopyWorkers bounds the parallel server-side copies during staging.
const DefaultCopyWorkers = 100

// Location identifies a bucket inventory export.
type Location struct {
	// Bucket is the bucket holding the inventory files.
	Bucket string
	// Path is the prefix within Bucket containing the hive/ directory.
	Path string
}

// WorkArea is the scratch bucket/prefix inventories are staged into.
type WorkArea struct {
	Bucket string
	Path   string
}

// Inventory ties one compared bucket's inventory export to its staging
// destination in the work area.
type Inventory struct {
	// Source is where the provider writes the inventory export.
	Source Location
	// ComparedBucket is the bucket the inventory enumerates.
	ComparedBucket string
	// Work is the shared work area for this run.
	Work WorkArea
}

// HivePrefix is the prefix under which the export's hive partition
// symlink files live.
func (inv Inventory) HivePrefix() string {
	return inv.Source.Path + "/hive/"
}

// WorkPath is the prefix within the work bucket this inventory is staged to.
// Each compared bucket gets its own subtree so the two inventories never mix.
func (inv Inventory) WorkPath() string {
	return inv.Work.Path + "/" + inv.ComparedBucket
}

// RewriteURL maps an s3:// URL from the inventory source location to the
// corresponding location inside the work area.
func (inv Inventory) RewriteURL(url string) string {
	url = strings.Replace(url, inv.Source.Bucket, inv.Work.Bucket, 1)
	return strings.Replace(url, inv.Source.Path, inv.WorkPath(), 1)
}

// SplitURL splits an s3://bucket/key URL into bucket and key.
func SplitURL(url string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed object URL %q", url)
	}
	return parts[0], parts[1], nil
}

// LatestPartition returns the key of the newest hive partition symlink file
// for the inventory. Partition keys embed dt= timestamps, so the
// lexically greatest key is the most recent export.
func LatestPartition(ctx context.Context, client storage.Client, inv Inventory) (string, error) {
	var latest string
	for obj := range client.ListObjects(ctx, inv.Source.Bucket, minio.ListObjectsOptions{
		Prefix:    inv.HivePrefix(),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return "", fmt.Errorf("list inventory partitions in s3://%s/%s: %w", inv.Source.Bucket, inv.HivePrefix(), obj.Err)
		}
		if obj.Key > latest {
			latest = obj.Key
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no inventory partitions found under s3://%s/%s", inv.Source.Bucket, inv.HivePrefix())
	}
	return latest, nil
}

// Stage copies the newest inventory partition into the work area.
//
// The partition symlink file lists the s3:// URLs of the inventory data
// files. Each data file is server-side copied into the work area, and a
// rewritten symlink file pointing at the copies is uploaded so an external
// table defined over the work area resolves them.
func Stage(ctx context.Context, client storage.Client, inv Inventory, workers int, log *zap.Logger) error {
	if workers <= 0 {
		workers = DefaultCopyWorkers
	}

	partition, err := LatestPartition(ctx, client, inv)
	if err != nil {
		return err
	}
	log.Info("Staging inventory partition",
		zap.String("compared_bucket", inv.ComparedBucket),
		zap.String("partition", partition),
	)

	obj, err := client.GetObject(ctx, inv.Source.Bucket, partition, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("download partition symlink s3://%s/%s: %w", inv.Source.Bucket, partition, err)
	}
	defer obj.Close()

	// Parse the whole manifest before launching any copy so a malformed
	// entry aborts the staging with nothing in flight.
	type copyPair struct {
		src, dst          string
		srcBucket, srcKey string
		dstBucket, dstKey string
	}
	var (
		rewritten bytes.Buffer
		pairs     []copyPair
	)
	scanner := bufio.NewScanner(obj)
	for scanner.Scan() {
		src := strings.TrimSpace(scanner.Text())
		if src == "" {
			continue
		}
		dst := inv.RewriteURL(src)
		rewritten.WriteString(dst + "\n")

		p := copyPair{src: src, dst: dst}
		var err error
		if p.srcBucket, p.srcKey, err = SplitURL(src); err != nil {
			return err
		}
		if p.dstBucket, p.dstKey, err = SplitURL(dst); err != nil {
			return err
		}
		pairs = append(pairs, p)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read partition symlink s3://%s/%s: %w", inv.Source.Bucket, partition, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, p := range pairs {
		g.Go(func() error {
			log.Debug("Copying inventory data file", zap.String("src", p.src), zap.String("dst", p.dst))
			_, err := client.CopyObject(gctx,
				minio.CopyDestOptions{Bucket: p.dstBucket, Object: p.dstKey},
				minio.CopySrcOptions{Bucket: p.srcBucket, Object: p.srcKey},
			)
			if err != nil {
				return fmt.Errorf("copy %s to %s: %w", p.src, p.dst, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	dstSymlink := strings.Replace(partition, inv.Source.Path, inv.WorkPath(), 1)
	log.Info("Uploading rewritten partition symlink",
		zap.String("bucket", inv.Work.Bucket),
		zap.String("key", dstSymlink),
	)
	_, err = client.PutObject(ctx, inv.Work.Bucket, dstSymlink,
		bytes.NewReader(rewritten.Bytes()), int64(rewritten.Len()), minio.PutObjectOptions{ContentType: "text/plain"})
	if err != nil {
		return fmt.Errorf("upload partition symlink s3://%s/%s: %w", inv.Work.Bucket, dstSymlink, err)
	}
	return nil
}
