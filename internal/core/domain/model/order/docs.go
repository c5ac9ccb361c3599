// Package order contains the Order aggregate and its lifecycle state machine.
//
// An order moves along a single path from Pending to Completed, with
// Cancelled reachable from every non-terminal state. The aggregate records
// the timestamps each transition produces (arrival, trip start, completion,
// cancellation) and carries the scheduled time interval plus the assigned
// driver. Scheduling conflicts are not decided here: handlers reserve the
// (driver, interval) pair in the scheduling ledger first and only then
// mutate the aggregate.
package order
