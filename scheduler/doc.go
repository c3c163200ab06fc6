// Package scheduler provides parallel batch ingestion over per-category
// worker pools.
//
// The Scheduler type manages the batch workflow for uploaded files, including:
//   - Routing each file to a specialist pool by extension
//   - Parsing, structured-data extraction, and storage per file
//   - Aggregating per-task outcomes into a batch report
//
// Concurrency is partitioned by category: each pool runs at most its
// configured number of tasks at once, so expensive formats cannot starve
// cheap ones. Task failures are recorded in the report and never abort the
// rest of the batch; only structural problems (an empty batch, an invalid
// pool table) surface as errors.
package scheduler
