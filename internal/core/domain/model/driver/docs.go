// Package driver contains the Driver aggregate.
//
// A driver has an availability status (Available, Busy, Offline), a
// last-known position fed by the location ingestion pipeline, and an
// active flag used for soft deletion. Deactivated drivers keep their
// history but are excluded from assignment and proximity queries.
package driver
