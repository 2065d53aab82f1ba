// Package executor performs actions against the network under the journal's
// discipline, and runs a scheduled plan on a pool of workers.
//
// For a single action, Execute consults the journal first. A completed entry
// is reused without touching the network. An entry left in flight by an
// earlier run is settled by looking its correlation key up on the network
// before anything is resubmitted. Otherwise the action is journaled in
// flight, submitted, and journaled completed only once the network confirms
// it. A submission whose outcome is unknown (timeout, lost connection) is
// re-queried before it is declared failed.
//
// Run dispatches ready actions lowest declaration order first. A required
// failure stops dispatching; actions already running finish and are
// journaled, and everything downstream of the failure is skipped.
package executor
