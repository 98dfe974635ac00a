package compare

import "strings"

const tablePrefix = "s3_inventory"

// sanitizeBucket turns a bucket name into a fragment safe for use in a
// table identifier. Bucket names allow '-' and '.', table names do not.
func sanitizeBucket(bucket string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(bucket)
}

// tableNames holds the generated table identifiers for one run.
type tableNames struct {
	left  string
	right string
	join  string
}

// newTableNames derives the inventory and join table names from the two
// compared bucket names. A non-empty runID namespaces the tables so
// concurrent runs against the same catalog cannot collide.
func newTableNames(leftBucket, rightBucket, runID string) tableNames {
	left := sanitizeBucket(leftBucket)
	right := sanitizeBucket(rightBucket)

	suffix := ""
	if runID != "" {
		suffix = "_" + sanitizeBucket(runID)
	}

	return tableNames{
		left:  tablePrefix + "_" + left + suffix,
		right: tablePrefix + "_" + right + suffix,
		join:  tablePrefix + "_join_" + left + "_" + right + suffix,
	}
}
