package compare

import (
	"context"
	"fmt"

	"s3-compare/core/engine"

	"go.uber.org/zap"
)

// createJoinTable materializes the combined view of both inventories.
//
// The join must be a FULL OUTER JOIN: keys present on only one side yield a
// row with the other side's column null, which is exactly the evidence the
// extraction step selects on. An inner join would silently drop every
// missing key. One full-outer table serves both extraction directions.
func (r *Runner) createJoinTable(ctx context.Context, names tableNames) error {
	r.Log.Info("Creating join table", zap.String("table", names.join))

	if _, err := engine.Run(ctx, r.Engine, fmt.Sprintf("DROP TABLE IF EXISTS %s", names.join), r.Wait); err != nil {
		return fmt.Errorf("drop join table %s: %w", names.join, err)
	}

	create := fmt.Sprintf(`
		CREATE TABLE %s
		WITH (format='PARQUET') AS
		SELECT
		  lhs.key AS left_key, rhs.key AS right_key
		FROM
		  %s lhs
		FULL OUTER JOIN
		  %s rhs
		USING (key)`,
		names.join, names.left, names.right)

	if _, err := engine.Run(ctx, r.Engine, create, r.Wait); err != nil {
		return fmt.Errorf("create join table %s: %w", names.join, err)
	}
	return nil
}
