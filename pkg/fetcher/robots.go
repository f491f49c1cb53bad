package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"

	"github.com/pagesift/pagesift/models"
)

const maxRobotsBody = 512 << 10

// RobotsGate enforces robots.txt permissions per origin. Verdict data is
// cached with a TTL; each origin has its own entry lock so a refresh of one
// origin never blocks checks against another.
type RobotsGate struct {
	client *http.Client
	agents *agentPool
	policy models.RobotsPolicy
	ttl    time.Duration
	log    zerolog.Logger

	mu    sync.Mutex
	cache map[string]*robotsEntry

	now func() time.Time
}

type robotsEntry struct {
	mu sync.Mutex

	group     *robotstxt.Group // nil means every path is allowed
	denyAll   bool
	fetchedAt time.Time
	expiresAt time.Time
}

func NewRobotsGate(client *http.Client, agents *agentPool, policy models.RobotsPolicy, ttl time.Duration, log zerolog.Logger) *RobotsGate {
	if policy == "" {
		policy = models.RobotsAllowOnError
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RobotsGate{
		client: client,
		agents: agents,
		policy: policy,
		ttl:    ttl,
		log:    log.With().Str("component", "robots").Logger(),
		cache:  make(map[string]*robotsEntry),
		now:    time.Now,
	}
}

// Allowed returns nil when u may be fetched and a RobotsDisallowedError
// when robots.txt forbids it.
func (g *RobotsGate) Allowed(ctx context.Context, u *url.URL) error {
	origin := u.Scheme + "://" + u.Host

	g.mu.Lock()
	entry, ok := g.cache[origin]
	if !ok {
		entry = &robotsEntry{}
		g.cache[origin] = entry
	}
	g.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.fetchedAt.IsZero() || g.now().After(entry.expiresAt) {
		g.refresh(ctx, origin, entry)
	}

	if entry.denyAll {
		return &models.RobotsDisallowedError{URL: u.String()}
	}
	if entry.group != nil && !entry.group.Test(requestPath(u)) {
		return &models.RobotsDisallowedError{URL: u.String()}
	}
	return nil
}

// refresh fetches and parses origin's robots.txt. A 4xx means no policy is
// published and everything is allowed; an unreachable or erroring server
// falls back to the configured policy.
func (g *RobotsGate) refresh(ctx context.Context, origin string, entry *robotsEntry) {
	entry.group = nil
	entry.denyAll = false
	entry.fetchedAt = g.now()
	entry.expiresAt = entry.fetchedAt.Add(g.ttl)

	ua := g.agents.next()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		g.applyErrorPolicy(origin, entry)
		return
	}
	req.Header.Set("User-Agent", ua)

	resp, err := g.client.Do(req)
	if err != nil {
		g.applyErrorPolicy(origin, entry)
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBody))
		if err != nil {
			g.applyErrorPolicy(origin, entry)
			return
		}
		data, err := robotstxt.FromBytes(body)
		if err != nil {
			g.applyErrorPolicy(origin, entry)
			return
		}
		entry.group = data.FindGroup(ua)
		g.log.Debug().Str("origin", origin).Msg("robots.txt loaded")
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// No policy published.
		g.log.Debug().Str("origin", origin).Int("status", resp.StatusCode).Msg("no robots.txt, allowing")
	default:
		g.applyErrorPolicy(origin, entry)
	}
}

func (g *RobotsGate) applyErrorPolicy(origin string, entry *robotsEntry) {
	entry.denyAll = g.policy == models.RobotsDenyOnError
	g.log.Warn().
		Str("origin", origin).
		Str("policy", string(g.policy)).
		Msg("robots.txt unavailable, applying fallback policy")
}

// Decisions snapshots the cached per-origin verdicts, for persistence.
func (g *RobotsGate) Decisions() []models.RobotsDecision {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.RobotsDecision, 0, len(g.cache))
	for origin, entry := range g.cache {
		entry.mu.Lock()
		out = append(out, models.RobotsDecision{
			Origin:    origin,
			Allowed:   !entry.denyAll,
			FetchedAt: entry.fetchedAt,
			ExpiresAt: entry.expiresAt,
		})
		entry.mu.Unlock()
	}
	return out
}

func requestPath(u *url.URL) string {
	p := u.Path
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
