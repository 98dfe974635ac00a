// Package compare reconciles the key-existence sets of two buckets using
// their inventory exports and a SQL query engine.
//
// Rather than enumerating keys through listing APIs, the pipeline registers
// each bucket's staged inventory export as an external table, materializes a
// FULL OUTER JOIN of the two tables on the key column, and selects the rows
// where one side is null - the keys present in exactly one bucket. The
// matching keys are written one per line to a file in the working directory.
//
// # Pipeline
//
//  1. Stage both inventories into the work area (core/inventory).
//  2. Register an external table per inventory.
//  3. Build the full-outer-join table.
//  4. Extract keys missing from the selected side.
//  5. Write the result file (00-find_table_missing_keys).
//
// Only key existence is compared; object content and checksums are out of
// scope. Running the pipeline twice with the two missing-in targets yields
// the two halves of the full symmetric difference, and the second run can
// reuse the tables of the first via the skip options.
package compare
