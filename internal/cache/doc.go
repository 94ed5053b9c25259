// Package cache persists generated page fragments keyed by pathkey.CacheKey.
//
// The default backend is a flat directory holding one <key>_content.html file
// per route. Writes go through a temp file in the same directory followed by a
// rename, so readers never observe a partially written entry and concurrent
// writers for the same key simply leave the last rename in place. Entries are
// never expired or evicted. Other backends (see the sqlstore subpackage)
// register themselves by name and satisfy the same Store contract, which is all
// the page service and menu builder rely on.
package cache
