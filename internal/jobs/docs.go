// Package jobs contains the recurring background jobs of the dispatch
// service.
//
// Three jobs run alongside the HTTP API:
//
//   - BatchAssignmentJob matches the pending-order backlog against
//     available drivers every five seconds.
//   - StalePositionJob evicts drivers with aged position fixes from the
//     in-memory index once a minute.
//   - PartitionMaintenanceJob pre-creates location history partitions and
//     drops those past the retention horizon, nightly.
//
// Each job owns its own cron scheduler. JobManager starts and stops them
// as a group during application startup and shutdown.
package jobs
