package fetcher

import (
	"errors"
	"log/slog"
	"math/rand"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/config"
)

// ProxyManager rotates requests across healthy proxies. A proxy that failed
// comes back into rotation once its cooldown has passed.
type ProxyManager struct {
	proxies  []*proxyEntry
	rotation string
	cooldown time.Duration
	index    atomic.Int64
	mu       sync.RWMutex
	logger   *slog.Logger
}

type proxyEntry struct {
	URL      *url.URL
	Healthy  bool
	LastErr  error
	LastUse  time.Time
	FailedAt time.Time
}

// NewProxyManager creates a new ProxyManager from configuration.
func NewProxyManager(cfg *config.ProxyConfig, logger *slog.Logger) *ProxyManager {
	pm := &ProxyManager{
		proxies:  make([]*proxyEntry, 0, len(cfg.URLs)),
		rotation: cfg.Rotation,
		cooldown: cfg.Cooldown,
		logger:   logger.With("component", "proxy_manager"),
	}

	for _, rawURL := range cfg.URLs {
		u, err := url.Parse(rawURL)
		if err != nil || u.Host == "" {
			pm.logger.Warn("invalid proxy URL", "url", rawURL, "error", err)
			continue
		}
		pm.proxies = append(pm.proxies, &proxyEntry{URL: u, Healthy: true})
	}

	pm.logger.Info("proxy manager initialized", "count", len(pm.proxies), "rotation", cfg.Rotation)
	return pm
}

// Next returns the next usable proxy, or nil when none are left. Callers
// connect directly on nil.
func (pm *ProxyManager) Next() *url.URL {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	usable := pm.usableProxies(time.Now())
	if len(usable) == 0 {
		return nil
	}

	var entry *proxyEntry
	switch pm.rotation {
	case "random":
		entry = usable[rand.Intn(len(usable))]
	default: // round_robin
		idx := (pm.index.Add(1) - 1) % int64(len(usable))
		entry = usable[idx]
	}
	entry.LastUse = time.Now()
	return entry.URL
}

// MarkFailed takes a proxy out of rotation for the cooldown period.
func (pm *ProxyManager) MarkFailed(proxyURL *url.URL, err error) {
	pm.setHealth(proxyURL, false, err)
	pm.logger.Warn("proxy marked unhealthy", "proxy", proxyURL.Host, "error", err, "cooldown", pm.cooldown)
}

// MarkHealthy puts a proxy back into rotation.
func (pm *ProxyManager) MarkHealthy(proxyURL *url.URL) {
	pm.setHealth(proxyURL, true, nil)
}

func (pm *ProxyManager) setHealth(proxyURL *url.URL, healthy bool, err error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for _, p := range pm.proxies {
		if p.URL.String() == proxyURL.String() {
			if !healthy {
				p.FailedAt = time.Now()
			}
			p.Healthy = healthy
			p.LastErr = err
			return
		}
	}
}

// Count returns the total number of proxies.
func (pm *ProxyManager) Count() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.proxies)
}

// HealthyCount returns the number of proxies Next may hand out.
func (pm *ProxyManager) HealthyCount() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.usableProxies(time.Now()))
}

// usableProxies returns healthy proxies plus failed ones whose cooldown has
// expired. A zero cooldown keeps failed proxies out until MarkHealthy.
func (pm *ProxyManager) usableProxies(now time.Time) []*proxyEntry {
	usable := make([]*proxyEntry, 0, len(pm.proxies))
	for _, p := range pm.proxies {
		if p.Healthy || (pm.cooldown > 0 && now.Sub(p.FailedAt) >= pm.cooldown) {
			usable = append(usable, p)
		}
	}
	return usable
}

// isProxyError reports whether err came from the proxy hop rather than the
// target host. Dial failures to the proxy are wrapped as "proxyconnect"; a
// CONNECT rejected for credentials surfaces as the 407 status text.
func isProxyError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "proxyconnect" {
		return true
	}
	return strings.Contains(err.Error(), "Proxy Authentication Required")
}
