// Package clientip records the originating client address of a request behind
// reverse proxies, for request logs and audit events.
package clientip
