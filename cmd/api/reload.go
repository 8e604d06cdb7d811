package main

import "github.com/rs/zerolog"

// namedCache is an in-process cache that SIGHUP clears.
type namedCache struct {
	name  string
	cache interface{ InvalidateCache() }
}

// invalidateCaches drops cached flags and weather observations, so flag edits made
// in the database apply without a restart.
func invalidateCaches(log zerolog.Logger, caches ...namedCache) {
	for _, c := range caches {
		c.cache.InvalidateCache()
		log.Info().Str("cache", c.name).Msg("cache invalidated")
	}
}
