package compare

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"s3-compare/core/engine"
	"s3-compare/core/inventory"
	"s3-compare/core/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options control which phases of a comparison run execute.
type Options struct {
	// MissingIn picks the bucket whose missing keys are reported.
	MissingIn Target
	// SkipSetup bypasses inventory staging and table registration. Useful
	// when the tables from a previous run are being reused to extract the
	// other direction.
	SkipSetup bool
	// SkipCreateJoinTable bypasses the join table creation phase.
	SkipCreateJoinTable bool
	// UniqueTables namespaces the generated table names with a fresh run
	// id so concurrent runs against the same catalog cannot collide. When
	// false, tables from prior runs are dropped and recreated.
	UniqueTables bool
	// CopyWorkers bounds the parallel copies during inventory staging.
	// Zero selects the default.
	CopyWorkers int
}

// Runner sequences the comparison pipeline: stage both inventories,
// register their tables, build the full-outer-join table, extract the
// missing keys and write them to the working directory. Steps run strictly
// sequentially; the first failure aborts the run. Created tables are never
// rolled back - cleanup is an operator concern.
type Runner struct {
	Storage storage.Client
	Engine  engine.Client
	Wait    engine.WaitConfig

	Left  inventory.Inventory
	Right inventory.Inventory

	// Workdir is the local directory result files are written into.
	Workdir string

	Log *zap.Logger
}

// step is one output-producing stage of the pipeline. Output files are
// named NN-<name> so later stages could chain on earlier outputs.
type step struct {
	name string
	fn   func(ctx context.Context, outputPath string) error
}

// Run executes the pipeline and returns the path of the result file.
func (r *Runner) Run(ctx context.Context, opts Options) (string, error) {
	if !opts.MissingIn.Valid() {
		return "", fmt.Errorf("invalid missing-in target %q: must be %q or %q", opts.MissingIn, TargetLeft, TargetRight)
	}

	if err := os.MkdirAll(r.Workdir, 0o755); err != nil {
		return "", fmt.Errorf("create working directory %s: %w", r.Workdir, err)
	}

	// Verify bucket access up front so configuration errors surface before
	// any statement reaches the engine.
	if err := r.checkBuckets(ctx); err != nil {
		return "", err
	}

	runID := ""
	if opts.UniqueTables {
		runID = uuid.NewString()[:8]
		r.Log.Info("Namespacing tables for this run", zap.String("run_id", runID))
	}
	names := newTableNames(r.Left.ComparedBucket, r.Right.ComparedBucket, runID)

	if opts.SkipSetup {
		r.Log.Info("Skipping inventory staging and table registration")
	} else {
		for _, inv := range []struct {
			inv   inventory.Inventory
			table string
		}{
			{r.Left, names.left},
			{r.Right, names.right},
		} {
			if err := inventory.Stage(ctx, r.Storage, inv.inv, opts.CopyWorkers, r.Log); err != nil {
				return "", err
			}
			if err := r.createInventoryTable(ctx, inv.inv, inv.table); err != nil {
				return "", err
			}
		}
	}

	if opts.SkipCreateJoinTable {
		r.Log.Info("Skipping join table creation")
	} else {
		if err := r.createJoinTable(ctx, names); err != nil {
			return "", err
		}
	}

	steps := []step{
		{
			name: "find_table_missing_keys",
			fn: func(ctx context.Context, outputPath string) error {
				handle, err := r.extractMissingKeys(ctx, names, opts.MissingIn)
				if err != nil {
					return err
				}
				return r.materializeKeys(ctx, handle, outputPath)
			},
		},
	}

	var outputPath string
	for i, s := range steps {
		outputPath = filepath.Join(r.Workdir, fmt.Sprintf("%02d-%s", i, s.name))
		r.Log.Info("Running step", zap.String("step", s.name), zap.String("output", outputPath))
		if err := s.fn(ctx, outputPath); err != nil {
			return "", err
		}
	}
	return outputPath, nil
}

// checkBuckets verifies that every bucket the run touches is reachable.
func (r *Runner) checkBuckets(ctx context.Context) error {
	buckets := map[string]string{
		"left inventory bucket":  r.Left.Source.Bucket,
		"right inventory bucket": r.Right.Source.Bucket,
		"work bucket":            r.Left.Work.Bucket,
	}
	for label, bucket := range buckets {
		exists, err := r.Storage.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check %s %q: %w", label, bucket, err)
		}
		if !exists {
			return fmt.Errorf("%s %q does not exist or is not accessible", label, bucket)
		}
	}
	return nil
}
