// Package metrics exposes Prometheus collectors for HTTP traffic by tenant
// resolution source, audit events and the Postgres pool.
package metrics
