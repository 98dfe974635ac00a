package compare

import (
	"context"
	"fmt"

	"s3-compare/core/engine"
	"s3-compare/core/inventory"

	"go.uber.org/zap"
)

// createInventoryTable declares an external table over one staged inventory
// so its keys become queryable. Any table left over from a prior run is
// dropped first, then the partition metadata is loaded with MSCK REPAIR.
func (r *Runner) createInventoryTable(ctx context.Context, inv inventory.Inventory, table string) error {
	r.Log.Info("Creating inventory table",
		zap.String("table", table),
		zap.String("compared_bucket", inv.ComparedBucket),
	)

	if _, err := engine.Run(ctx, r.Engine, fmt.Sprintf("DROP TABLE IF EXISTS %s", table), r.Wait); err != nil {
		return fmt.Errorf("drop inventory table %s: %w", table, err)
	}

	create := fmt.Sprintf(`
		CREATE EXTERNAL TABLE %s (
			`+"`bucket`"+` string,
			key string
		)
		PARTITIONED BY (dt string)
		ROW FORMAT SERDE 'org.apache.hadoop.hive.ql.io.parquet.serde.ParquetHiveSerDe'
		STORED AS INPUTFORMAT 'org.apache.hadoop.hive.ql.io.SymlinkTextInputFormat'
		OUTPUTFORMAT 'org.apache.hadoop.hive.ql.io.IgnoreKeyTextOutputFormat'
		LOCATION 's3://%s/%s/hive/'`,
		table, inv.Work.Bucket, inv.WorkPath())

	if _, err := engine.Run(ctx, r.Engine, create, r.Wait); err != nil {
		return fmt.Errorf("create inventory table %s: %w", table, err)
	}

	if _, err := engine.Run(ctx, r.Engine, fmt.Sprintf("MSCK REPAIR TABLE %s", table), r.Wait); err != nil {
		return fmt.Errorf("repair inventory table %s: %w", table, err)
	}
	return nil
}
