// Package redis connects the shared Redis used as the cross-instance tenant cache.
package redis
