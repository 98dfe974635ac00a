package compare

import (
	"context"
	"fmt"

	"s3-compare/core/engine"

	"go.uber.org/zap"
)

// Target designates the bucket whose absence of keys is being reported.
type Target string

const (
	// TargetLeft reports keys present in the right bucket but missing in the left.
	TargetLeft Target = "left"
	// TargetRight reports keys present in the left bucket but missing in the right.
	TargetRight Target = "right"
)

// Valid reports whether the target is one of the two known directions.
func (t Target) Valid() bool {
	return t == TargetLeft || t == TargetRight
}

// extractMissingKeys selects the keys missing from the target bucket out of
// the join table and returns the handle of the completed query.
//
// DISTINCT collapses the row multiplication a duplicated inventory key would
// otherwise cause, and ORDER BY makes the result (and therefore the output
// file) reproducible across runs over unchanged inventories.
func (r *Runner) extractMissingKeys(ctx context.Context, names tableNames, missingIn Target) (string, error) {
	selectKey, nullKey := "right_key", "left_key"
	if missingIn == TargetRight {
		selectKey, nullKey = "left_key", "right_key"
	}

	r.Log.Info("Extracting missing keys",
		zap.String("table", names.join),
		zap.String("missing_in", string(missingIn)),
	)

	query := fmt.Sprintf(`
		SELECT DISTINCT %s AS key FROM %s
		WHERE %s IS NULL AND %s IS NOT NULL
		ORDER BY key`,
		selectKey, names.join, nullKey, selectKey)

	handle, err := engine.Run(ctx, r.Engine, query, r.Wait)
	if err != nil {
		return "", fmt.Errorf("extract keys missing in %s: %w", missingIn, err)
	}
	return handle, nil
}
