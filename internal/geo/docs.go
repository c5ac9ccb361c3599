// Package geo provides geohash encoding and an in-memory geospatial index
// for driver proximity queries.
//
// Positions are bucketed by geohash cell so a radius query only inspects
// the cells intersecting the query circle. Updates are last-write-wins on
// the sample's recorded time, and entries older than the liveness window
// are excluded from results and periodically evicted.
package geo
