// Package disk provides a filesystem-backed implementation of cache.Cache.
package disk
