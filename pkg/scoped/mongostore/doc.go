// Package mongostore implements scoped.Store over a MongoDB collection.
//
// Every filter includes tenant_id, and updates replace with the filter {_id, tenant_id}.
// Call EnsureIndexes once at startup to get per-tenant unique indexes.
package mongostore
