// Package cmap provides a concurrent map split into independently locked
// shards.
//
// It backs tables keyed by request attributes, such as the per-client
// rate limiters, where many goroutines touch different keys at once:
//
//	m := cmap.New[string, *visitor]()
//	v := m.Upsert(ip, func(old *visitor, ok bool) *visitor { ... })
//
// All operations are safe for concurrent use. Range and DeleteFunc lock one
// shard at a time, so they do not see a consistent snapshot.
package cmap
