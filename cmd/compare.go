package cmd

import (
	"fmt"

	"s3-compare/core/config"
	"s3-compare/core/engine"
	"s3-compare/core/inventory"
	"s3-compare/core/logger"
	"s3-compare/core/storage"
	"s3-compare/feature/compare"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the compare command
	missingIn            string
	skipSetup            bool
	skipCreateJoinTable  bool
	uniqueTables         bool
	copyWorkers          int
	leftComparedBucket   string
	leftInventoryBucket  string
	leftInventoryPath    string
	rightComparedBucket  string
	rightInventoryBucket string
	rightInventoryPath   string
	workBucket           string
	workPath             string
	localWorkdir         string
	queryResultLocation  string
	athenaSchema         string
	athenaRegion         string
)

// compareCmd runs the inventory comparison pipeline.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Find keys present in one bucket but missing in the other",
	Long: `Compare the inventories of two buckets and report the keys missing from
the bucket selected with --missing-in.

The newest inventory partition of each bucket is staged into the work
bucket, registered as an Athena external table, and the two tables are
combined with a full outer join on key name. Keys whose row is null on
the --missing-in side are written one per line to the local working
directory.

Examples:
  # Keys present in the left bucket but missing in the right
  s3-compare compare --missing-in right \
    --left-compared-bucket prod-assets \
    --left-inventory-bucket prod-inventories --left-inventory-path inv/prod-assets \
    --right-compared-bucket dr-assets \
    --right-inventory-bucket dr-inventories --right-inventory-path inv/dr-assets \
    --work-bucket compare-work --work-path runs \
    --local-workdir ~/compare-out \
    --athena-query-result-location s3://query-results/staging/

  # Check the other direction, reusing the tables from the previous run
  s3-compare compare --missing-in left ... --skip-setup --skip-create-join-table`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&missingIn, "missing-in", "", "Which of the two buckets should be checked for missing keys: left or right")
	compareCmd.Flags().BoolVar(&skipSetup, "skip-setup", false, "Skip inventory staging and table registration (reuse a previous run's tables)")
	compareCmd.Flags().BoolVar(&skipCreateJoinTable, "skip-create-join-table", false, "Skip the join table creation phase")
	compareCmd.Flags().BoolVar(&uniqueTables, "unique-tables", false, "Namespace table names with a per-run id instead of dropping and recreating")
	compareCmd.Flags().IntVar(&copyWorkers, "copy-workers", inventory.DefaultCopyWorkers, "Parallel server-side copies during inventory staging")
	compareCmd.Flags().StringVar(&leftComparedBucket, "left-compared-bucket", "", "Name of the left bucket to be compared")
	compareCmd.Flags().StringVar(&leftInventoryBucket, "left-inventory-bucket", "", "Bucket containing the inventory files for the left compared bucket")
	compareCmd.Flags().StringVar(&leftInventoryPath, "left-inventory-path", "", "Path within the left inventory bucket containing the hive directory")
	compareCmd.Flags().StringVar(&rightComparedBucket, "right-compared-bucket", "", "Name of the right bucket to be compared")
	compareCmd.Flags().StringVar(&rightInventoryBucket, "right-inventory-bucket", "", "Bucket containing the inventory files for the right compared bucket")
	compareCmd.Flags().StringVar(&rightInventoryPath, "right-inventory-path", "", "Path within the right inventory bucket containing the hive directory")
	compareCmd.Flags().StringVar(&workBucket, "work-bucket", "", "Bucket used for internal work purposes")
	compareCmd.Flags().StringVar(&workPath, "work-path", "", "Path within the work bucket to place work files under")
	compareCmd.Flags().StringVar(&localWorkdir, "local-workdir", "", "Local directory for result files")
	compareCmd.Flags().StringVar(&queryResultLocation, "athena-query-result-location", "", "Query result staging location, e.g. s3://query-results-bucket/folder/")
	compareCmd.Flags().StringVar(&athenaSchema, "athena-schema", "", "Athena schema to run queries in (default from config: default)")
	compareCmd.Flags().StringVar(&athenaRegion, "athena-region", "", "AWS region for Athena queries")

	for _, flag := range []string{
		"missing-in",
		"left-compared-bucket", "left-inventory-bucket", "left-inventory-path",
		"right-compared-bucket", "right-inventory-bucket", "right-inventory-path",
		"work-bucket", "work-path", "local-workdir",
	} {
		_ = compareCmd.MarkFlagRequired(flag)
	}

	RootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Flags override configured engine parameters
	if athenaRegion != "" {
		cfg.Athena.Region = athenaRegion
	}
	if athenaSchema != "" {
		cfg.Athena.Schema = athenaSchema
	}
	if queryResultLocation != "" {
		cfg.Athena.ResultLocation = queryResultLocation
	}
	if cfg.Athena.ResultLocation == "" {
		return fmt.Errorf("athena query result location is required (flag --athena-query-result-location or ATHENA_RESULT_LOCATION)")
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	l.Info("Starting bucket comparison",
		zap.String("left", leftComparedBucket),
		zap.String("right", rightComparedBucket),
		zap.String("missing_in", missingIn),
	)

	// Connect to storage
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	// Connect to the query engine
	eng, err := engine.NewAthenaClient(ctx, cfg.Athena)
	if err != nil {
		return fmt.Errorf("failed to create query engine client: %w", err)
	}

	work := inventory.WorkArea{Bucket: workBucket, Path: workPath}
	runner := &compare.Runner{
		Storage: client,
		Engine:  eng,
		Wait:    cfg.Athena.WaitConfig(),
		Left: inventory.Inventory{
			Source:         inventory.Location{Bucket: leftInventoryBucket, Path: leftInventoryPath},
			ComparedBucket: leftComparedBucket,
			Work:           work,
		},
		Right: inventory.Inventory{
			Source:         inventory.Location{Bucket: rightInventoryBucket, Path: rightInventoryPath},
			ComparedBucket: rightComparedBucket,
			Work:           work,
		},
		Workdir: localWorkdir,
		Log:     l,
	}

	outputPath, err := runner.Run(ctx, compare.Options{
		MissingIn:           compare.Target(missingIn),
		SkipSetup:           skipSetup,
		SkipCreateJoinTable: skipCreateJoinTable,
		UniqueTables:        uniqueTables,
		CopyWorkers:         copyWorkers,
	})
	if err != nil {
		return err
	}

	l.Info("Comparison complete", zap.String("output", outputPath))
	return nil
}
