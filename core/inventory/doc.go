// Package inventory stages S3 Inventory exports into a work area.
//
// S3 Inventory writes periodic manifests of a bucket's keys as Parquet files,
// with hive-style partition symlink files under <path>/hive/dt=<timestamp>/.
// Before the inventories can be queried they are staged: the newest partition
// is located, its symlink file (a plain-text list of s3:// data file URLs) is
// rewritten to point inside the work bucket, the data files are server-side
// copied there, and the rewritten symlink is uploaded. External tables are
// then declared over the work area rather than the live export location, so a
// mid-run inventory refresh cannot change the data under a comparison.
//
// Copies run in parallel with a bounded worker count since a large bucket's
// inventory spans many data files.
package inventory
