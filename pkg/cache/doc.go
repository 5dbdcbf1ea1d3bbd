// Package cache provides timestamp-keyed memoization for parsed manifest
// files. The in-memory layer re-invokes a loader only when the source
// file's modification time advances past the recorded one; an optional
// SQLite-backed store persists results across processes. Cache
// unavailability or corruption is always treated as a miss, never a
// failure.
package cache
