// Package market fetches current prices from the Albion Online Data Project.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"albion-flipper/internal/engine"
	"albion-flipper/internal/logger"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// DefaultServer is used when no server is configured.
	DefaultServer = "europe"
	// DefaultChunkSize keeps request URLs under the AODP length limit.
	DefaultChunkSize = 40
	// DefaultRequestsPerSecond is the sustained request rate.
	DefaultRequestsPerSecond = 3.0
	// DefaultCacheTTL is how long a chunk response is reused.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultBreakerFailures is the number of consecutive failures that opens the breaker.
	DefaultBreakerFailures = 5

	userAgent = "albion-flipper/1.0"
)

// Servers maps server names to AODP base URLs.
var Servers = map[string]string{
	"west":   "https://west.albion-online-data.com",
	"east":   "https://east.albion-online-data.com",
	"europe": "https://europe.albion-online-data.com",
}

// ServerURL returns the base URL of a named server.
func ServerURL(name string) (string, error) {
	if name == "" {
		name = DefaultServer
	}
	u, ok := Servers[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("unknown AODP server %q (want west, east or europe)", name)
	}
	return u, nil
}

// Options configures a Client. Zero values take the defaults above.
type Options struct {
	Server            string
	BaseURL           string // overrides Server, used by tests
	ChunkSize         int
	RequestsPerSecond float64
	Burst             int
	CacheTTL          time.Duration
	BreakerFailures   uint32
	Timeout           time.Duration
}

// Client is a rate-limited, circuit-broken AODP HTTP client.
// It is safe for concurrent use.
type Client struct {
	http      *http.Client
	server    string
	baseURL   string
	chunkSize int
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	cache     *cache.Cache
	group     singleflight.Group
}

// NewClient creates a client for the configured server.
func NewClient(opts Options) (*Client, error) {
	server := strings.ToLower(opts.Server)
	if server == "" {
		server = DefaultServer
	}
	base := opts.BaseURL
	if base == "" {
		u, err := ServerURL(server)
		if err != nil {
			return nil, err
		}
		base = u
	}
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = DefaultBreakerFailures
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	st := gobreaker.Settings{
		Name:     "aodp-" + server,
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("AODP", fmt.Sprintf("breaker %s: %s -> %s", name, from, to))
		},
	}

	return &Client{
		http:      &http.Client{Timeout: timeout},
		server:    server,
		baseURL:   strings.TrimRight(base, "/"),
		chunkSize: chunk,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		breaker:   gobreaker.NewCircuitBreaker(st),
		cache:     cache.New(ttl, 2*ttl),
	}, nil
}

// Server returns the configured server name.
func (c *Client) Server() string { return c.server }

// FetchPrices downloads current prices for every (item, city, quality)
// combination. Items are split into chunks; a failing chunk is logged and
// skipped unless every chunk fails.
func (c *Client) FetchPrices(ctx context.Context, items []string, cities []engine.City, qualities []engine.Quality) ([]engine.PriceObservation, error) {
	items = uniqueSorted(items)
	if len(items) == 0 {
		return nil, nil
	}
	tag := fmt.Sprintf("aodp/%s/%s", c.server, uuid.NewString())

	var (
		all    []engine.PriceObservation
		errs   []error
		chunks = chunk(items, c.chunkSize)
	)
	for _, ids := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := c.fetchChunk(ctx, c.pricesURL(ids, cities, qualities))
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			logger.Warn("AODP", fmt.Sprintf("chunk of %d items failed: %v", len(ids), err))
			errs = append(errs, err)
			continue
		}
		all = append(all, normalize(records, tag)...)
	}
	if len(errs) == len(chunks) {
		return nil, fmt.Errorf("all %d AODP requests failed: %w", len(chunks), errors.Join(errs...))
	}
	return all, nil
}

// pricesURL builds {base}/api/v2/stats/prices/{items}.json?locations=..&qualities=..
func (c *Client) pricesURL(items []string, cities []engine.City, qualities []engine.Quality) string {
	q := url.Values{}
	if len(cities) > 0 {
		names := make([]string, len(cities))
		for i, city := range cities {
			names[i] = string(city)
		}
		q.Set("locations", strings.Join(names, ","))
	}
	if len(qualities) > 0 {
		qs := make([]string, len(qualities))
		for i, ql := range qualities {
			qs[i] = strconv.Itoa(int(ql))
		}
		q.Set("qualities", strings.Join(qs, ","))
	}
	escaped := make([]string, len(items))
	for i, id := range items {
		escaped[i] = url.PathEscape(id)
	}
	u := fmt.Sprintf("%s/api/v2/stats/prices/%s.json", c.baseURL, strings.Join(escaped, ","))
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// fetchChunk serves from the TTL cache, otherwise coalesces identical
// in-flight requests and goes through the limiter and breaker.
func (c *Client) fetchChunk(ctx context.Context, u string) ([]priceRecord, error) {
	if v, ok := c.cache.Get(u); ok {
		return v.([]priceRecord), nil
	}
	v, err, _ := c.group.Do(u, func() (interface{}, error) {
		if v, ok := c.cache.Get(u); ok {
			return v, nil
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		res, err := c.breaker.Execute(func() (interface{}, error) {
			return c.get(ctx, u)
		})
		if err != nil {
			return nil, err
		}
		c.cache.Set(u, res, cache.DefaultExpiration)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]priceRecord), nil
}

func (c *Client) get(ctx context.Context, u string) ([]priceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("AODP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var records []priceRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode AODP response: %w", err)
	}
	return records, nil
}

func chunk(items []string, size int) [][]string {
	var out [][]string
	for len(items) > size {
		out = append(out, items[:size:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
