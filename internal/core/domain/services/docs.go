// Package services contains stateless and process-local domain services
// that coordinate multiple aggregates.
//
// ScheduleBook is the scheduling ledger: the single authority on driver
// time, enforcing that no driver ever holds two overlapping reservations.
// AssignmentEngine matches pending orders to drivers against the ledger,
// in batch runs and in the urgent nearest-driver fast path. RouteSequencer
// orders a driver's pickup stops by greedy nearest-neighbor.
package services
