// Package syncer contains the orchestrator that drives one end-to-end
// synchronization cycle: push queued local mutations, pull server deltas,
// resolve conflicts, and publish progress.
//
// At most one cycle runs at a time; admission is guarded by an atomic flag.
// Within a cycle all network calls are sequential, tables are processed in a
// fixed dependency order, and a single item's failure never aborts the rest
// of the batch. Cancellation is cooperative, checked per item, and the
// cancellation context is threaded into every transport call so an in-flight
// request is actually aborted.
package syncer
