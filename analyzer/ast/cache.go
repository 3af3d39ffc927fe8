package ast

import (
	"strings"
	"sync"
)

// resultCache provides concurrent-safe caching of analysis results per
// directory and configuration. Loading packages dominates analysis time,
// so repeated analysis of the same tree (editor integrations, watch mode)
// is served from memory until ClearCache is called.
type resultCache struct {
	mu    sync.RWMutex              // Protects concurrent map access
	cache map[string]AnalysisResult // Cache storage (keyed by dir and config)
}

// newResultCache initializes a resultCache with reasonable default capacity.
func newResultCache() *resultCache {
	return &resultCache{
		cache: make(map[string]AnalysisResult, 8),
	}
}

// cacheKey identifies an analysis by its root directory and configuration.
func cacheKey(dir string, config AnalysisConfig) string {
	return dir + "\x00" + strings.Join(config.CompileFunctionNames, ",") +
		"\x00" + strings.Join(config.PackagePaths, ",") + "\x00" + config.FunctionOptionName + "\x00" + config.FunctionOptionPackage
}

// get retrieves a cached result with read lock for concurrent safety.
// Returns the cached result and a boolean indicating cache hit/miss.
func (rc *resultCache) get(k string) (AnalysisResult, bool) {
	rc.mu.RLock()
	v, ok := rc.cache[k]
	rc.mu.RUnlock()
	return v, ok
}

// set stores a result in cache with write lock for concurrent safety.
func (rc *resultCache) set(k string, v AnalysisResult) {
	rc.mu.Lock()
	rc.cache[k] = v
	rc.mu.Unlock()
}

// clear drops every cached result.
func (rc *resultCache) clear() {
	rc.mu.Lock()
	clear(rc.cache)
	rc.mu.Unlock()
}
