// Package core is the scan validation and catalog reconciliation engine.
//
// It is independent of any transport: the HTTP adapter, the admin CLI and
// the tests all drive the same [Service].
//
// # Components
//
//   - [CatalogStore]: the master catalog of articles keyed by EAN.
//   - [ScanLogStore]: the append-only history of scan readings.
//   - [Service.Validate]: resolves a scanned code and records a reading.
//   - [Service.Import]: merges an uploaded three-column table into the
//     catalog, one row at a time, and reports a per-row outcome.
//   - [Service.Export]: streams the scan history into an xlsx or csv file.
//
// # Row Isolation
//
// Import applies each row on its own. A rejected row never prevents its
// siblings from being applied and nothing is rolled back. Only a store
// outage (pool exhausted or database unreachable) stops an import early, in
// which case the partial report is returned together with the error.
//
// # Error Handling
//
// Expected outcomes are values, not errors: an unknown barcode is a
// [ScanResult] with status [ScanUnmatched] and a bad upload row is a
// [RowOutcome] with status [RowRejected]. Errors are reserved for blank
// input ([ErrInvalidInput]), malformed tables ([ErrColumnCount]) and
// resource failures. [MapError] turns any of them into a [UserMessage].
package core
