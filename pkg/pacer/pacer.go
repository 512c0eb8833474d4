package pacer

import (
	"math/rand"
	"sync"
	"time"
)

// Pacer
// Specialized component to space out successive requests to the same host
// while the installer walks the asset manifest.
// Responsibilities:
// - Bookkeep each hostname's last fetch timestamp
// - Compute the remaining delay for a hostname given base delay and jitter
// - Keep jitter reproducible under a fixed seed
type Pacer interface {
	ResolveDelay(host string) time.Duration
	MarkLastFetchAsNow(host string)
}

type HostPacer struct {
	mu        sync.Mutex
	baseDelay time.Duration
	jitter    time.Duration
	lastFetch map[string]time.Time
	rng       *rand.Rand
}

func NewHostPacer(baseDelay, jitter time.Duration, randomSeed int64) *HostPacer {
	return &HostPacer{
		baseDelay: baseDelay,
		jitter:    jitter,
		lastFetch: make(map[string]time.Time),
		rng:       rand.New(rand.NewSource(randomSeed)),
	}
}

// ResolveDelay returns how long the caller should wait before issuing the
// next request to host. A host that has never been fetched gets no delay.
func (p *HostPacer) ResolveDelay(host string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	last, exists := p.lastFetch[host]
	if !exists {
		return 0
	}

	finalDelay := p.baseDelay
	if p.jitter > 0 {
		finalDelay += time.Duration(p.rng.Int63n(int64(p.jitter)))
	}

	elapsed := time.Since(last)
	if elapsed < finalDelay {
		return finalDelay - elapsed
	}
	return 0
}

// MarkLastFetchAsNow records that host was just fetched.
func (p *HostPacer) MarkLastFetchAsNow(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastFetch[host] = time.Now()
}
