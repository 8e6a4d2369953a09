package scrape

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/theoremus-urban-solutions/ais-vessel-lookup/ais"
)

// DefaultTargetURL is the public ship-detail page, parametrized by MMSI.
const DefaultTargetURL = "https://www.vesselfinder.com/vessels/details/%s"

// DefaultUserAgent is a conventional browser user agent; the relays reject
// obvious non-browser clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultTimeout bounds each individual relay attempt. Relays are tried
// strictly in sequence, so worst-case latency is the sum over the list.
const DefaultTimeout = 15 * time.Second

// DefaultProxies are public URL-rewriting relays; %s receives the
// query-escaped target URL.
var DefaultProxies = []string{
	"https://api.allorigins.win/raw?url=%s",
	"https://corsproxy.io/?%s",
	"https://api.codetabs.com/v1/proxy?quest=%s",
}

var (
	nameRe = regexp.MustCompile(`<h1[^>]*>([^<]+)</h1>`)
	latRe  = regexp.MustCompile(`"latitude"\s*:\s*"?(-?[0-9]+(?:\.[0-9]+)?)"?`)
	lonRe  = regexp.MustCompile(`"longitude"\s*:\s*"?(-?[0-9]+(?:\.[0-9]+)?)"?`)
	posRe  = regexp.MustCompile(`"last_pos"\s*:\s*"([^"]+)"`)
)

// Config configures a Scraper; zero values fall back to the public relays
// and target page.
type Config struct {
	TargetURL  string
	Proxies    []string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Scraper resolves vessel positions by scraping. Implements
// ais.FallbackResolver. Each relay gets its own circuit breaker so a relay
// that keeps failing is skipped until its cool-off elapses; breakers start
// closed, so a fresh scraper still tries every relay in order.
type Scraper struct {
	client    *http.Client
	targetURL string
	proxies   []string
	userAgent string
	breakers  []*gobreaker.CircuitBreaker[[]byte]
}

func New(cfg Config) *Scraper {
	s := &Scraper{
		client:    cfg.HTTPClient,
		targetURL: cfg.TargetURL,
		proxies:   cfg.Proxies,
		userAgent: cfg.UserAgent,
	}
	if s.targetURL == "" {
		s.targetURL = DefaultTargetURL
	}
	if len(s.proxies) == 0 {
		s.proxies = append([]string(nil), DefaultProxies...)
	}
	if s.userAgent == "" {
		s.userAgent = DefaultUserAgent
	}
	if s.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		s.client = &http.Client{Timeout: timeout}
	}
	for _, proxy := range s.proxies {
		s.breakers = append(s.breakers, gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    breakerName(proxy),
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}))
	}
	return s
}

// Resolve fetches the ship-detail page through each relay in turn and
// extracts a position from the first body that yields coordinates. Returns
// nil, nil when every relay fails or nothing extractable comes back; errors
// are absorbed and logged per relay.
func (s *Scraper) Resolve(ctx context.Context, mmsi string) (*ais.VesselPosition, error) {
	target := fmt.Sprintf(s.targetURL, mmsi)
	for i, proxy := range s.proxies {
		attempt := fmt.Sprintf(proxy, url.QueryEscape(target))
		body, err := s.breakers[i].Execute(func() ([]byte, error) {
			return s.fetch(ctx, attempt)
		})
		if err != nil {
			log.Warn().Err(err).Str("proxy", breakerName(proxy)).Msg("relay fetch failed")
			continue
		}
		pos, ok := extract(mmsi, body)
		if !ok {
			log.Warn().Str("proxy", breakerName(proxy)).Msg("no coordinates in scraped page")
			continue
		}
		log.Info().Str("mmsi", mmsi).Str("proxy", breakerName(proxy)).Msg("position scraped")
		return pos, nil
	}
	log.Warn().Str("mmsi", mmsi).Msg("all scrape relays exhausted without a position")
	return nil, nil
}

func (s *Scraper) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from relay", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// extract pattern-matches name, coordinates and last-position timestamp out
// of the page body. Both coordinates are required; everything else is
// optional, with the timestamp defaulting to now.
func extract(mmsi string, body []byte) (*ais.VesselPosition, bool) {
	lat, okLat := matchFloat(latRe, body)
	lon, okLon := matchFloat(lonRe, body)
	if !okLat || !okLon {
		return nil, false
	}
	pos := &ais.VesselPosition{
		MMSI:       mmsi,
		Latitude:   lat,
		Longitude:  lon,
		Additional: map[string]any{"source": "scrape"},
	}
	if m := nameRe.FindSubmatch(body); m != nil {
		pos.Name = strings.TrimSpace(html.UnescapeString(string(m[1])))
	}
	if m := posRe.FindSubmatch(body); m != nil {
		pos.LastUpdate = string(m[1])
	} else {
		pos.LastUpdate = time.Now().UTC().Format(time.RFC3339)
	}
	return pos, true
}

func matchFloat(re *regexp.Regexp, body []byte) (float64, bool) {
	m := re.FindSubmatch(body)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// breakerName trims a relay template down to its host for logs and breaker
// identification.
func breakerName(proxy string) string {
	u, err := url.Parse(strings.ReplaceAll(proxy, "%s", ""))
	if err != nil || u.Host == "" {
		return proxy
	}
	return u.Host
}
