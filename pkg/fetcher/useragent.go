package fetcher

import "sync"

// browserAgents is the rotation pool used when no user agent is pinned.
var browserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
}

// agentPool hands out user agents. A pinned agent always wins; otherwise
// the pool rotates per request.
type agentPool struct {
	pinned string
	rotate bool

	mu  sync.Mutex
	idx int
}

func newAgentPool(pinned string, rotate bool) *agentPool {
	return &agentPool{pinned: pinned, rotate: rotate}
}

func (p *agentPool) next() string {
	if p.pinned != "" {
		return p.pinned
	}
	if !p.rotate {
		return browserAgents[0]
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ua := browserAgents[p.idx%len(browserAgents)]
	p.idx++
	return ua
}
