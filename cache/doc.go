// Package cache provides digest-keyed storage for derived archive data.
//
// The archive layer stores its serialized index here so later opens of the
// same install skip the full index parse. Keys are go-digest values; a
// corrupt or stale entry is never fatal, callers re-derive and overwrite it.
package cache
