// Package mongo connects the optional MongoDB backend used by scoped/mongostore.
package mongo
