package cache

import (
	"github.com/vantagebill/vantagebill/internal/logger"
)

// Initialize initializes the cache system
func Initialize(log *logger.Logger) *InMemoryCache {
	InitializeInMemoryCache()

	log.Debugw("cache system initialized")

	return GetInMemoryCache()
}
