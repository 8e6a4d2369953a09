package ais

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// DefaultEndpoint is the public aisstream.io websocket endpoint.
const DefaultEndpoint = "wss://stream.aisstream.io/v0/stream"

// DefaultLookupTimeout bounds the live-feed wait when the caller passes no
// timeout of its own.
const DefaultLookupTimeout = 30 * time.Second

const handshakeTimeout = 10 * time.Second

var validate = validator.New()

// CredentialStore persists the live-feed API key across process restarts.
// Load returns an empty string when no key has ever been stored.
type CredentialStore interface {
	Load() (string, error)
	Store(key string) error
}

// FallbackResolver is the degraded path tried when the live feed is
// unavailable or silent. Implementations are best-effort: a nil position
// with a nil error means "no result".
type FallbackResolver interface {
	Resolve(ctx context.Context, mmsi string) (*VesselPosition, error)
}

// ClientConfig configures a Client. Every field is optional; zero values
// fall back to the public endpoint, no persistence, no fallback.
type ClientConfig struct {
	Endpoint string
	Store    CredentialStore
	Fallback FallbackResolver
	Tracker  *Tracker
	Dialer   *websocket.Dialer
}

// Client owns one live feed connection, a table of in-flight per-vessel
// lookups and the scraping fallback. Safe for concurrent use.
type Client struct {
	endpoint string
	dialer   *websocket.Dialer
	store    CredentialStore
	fallback FallbackResolver
	tracker  *Tracker

	mu         sync.Mutex
	credential string
	conn       *websocket.Conn
	state      ConnState
	inflight   map[string]*inflightEntry

	// writeMu serializes frame writes; gorilla connections allow only one
	// concurrent writer.
	writeMu sync.Mutex
}

// inflightEntry correlates inbound frames to waiting lookups. Concurrent
// lookups for the same MMSI coalesce onto one entry: each waiter gets its
// own buffered channel, the first caller's timer governs the entry.
type inflightEntry struct {
	timer   *time.Timer
	waiters []chan *VesselPosition
}

// NewClient builds a Client and loads any persisted credential from the
// store. Absence of a credential is a valid state; lookups then use the
// fallback only.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		endpoint: cfg.Endpoint,
		dialer:   cfg.Dialer,
		store:    cfg.Store,
		fallback: cfg.Fallback,
		tracker:  cfg.Tracker,
		state:    StateAbsent,
		inflight: map[string]*inflightEntry{},
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.dialer == nil {
		c.dialer = &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	}
	if c.store != nil {
		key, err := c.store.Load()
		if err != nil {
			log.Warn().Err(err).Msg("credential store unreadable, starting without live feed key")
		} else {
			c.credential = key
		}
	}
	return c
}

// SetCredential replaces the active live-feed key and persists it. The key
// is not validated here; validity is only discovered on first use.
func (c *Client) SetCredential(key string) {
	c.mu.Lock()
	c.credential = key
	store := c.store
	c.mu.Unlock()
	if store == nil || key == "" {
		return
	}
	if err := store.Store(key); err != nil {
		log.Warn().Err(err).Msg("failed to persist live feed credential")
	}
}

// Credential returns the active live-feed key, or an empty string when none
// has been set or loaded.
func (c *Client) Credential() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credential
}

// State reports the live connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Lookup resolves an MMSI to the vessel's last known position, preferring
// the live feed and degrading to the fallback resolver. The live wait is
// bounded by timeout (DefaultLookupTimeout when <= 0).
//
// Lookup never returns an error: a malformed identifier, a missing
// credential, transport failures and timeouts all yield nil. Concurrent
// lookups for the same MMSI share one in-flight entry and receive the same
// result.
func (c *Client) Lookup(ctx context.Context, mmsi string, timeout time.Duration) *VesselPosition {
	if err := validate.Var(mmsi, "len=9,number"); err != nil {
		log.Warn().Str("mmsi", mmsi).Msg("rejecting malformed MMSI, expected exactly 9 digits")
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	if pos := c.lookupLive(ctx, mmsi, timeout); pos != nil {
		return pos
	}
	if c.fallback == nil {
		return nil
	}
	log.Info().Str("mmsi", mmsi).Msg("live feed yielded no position, trying fallback")
	pos, err := c.fallback.Resolve(ctx, mmsi)
	if err != nil {
		log.Warn().Err(err).Str("mmsi", mmsi).Msg("fallback resolution failed")
		return nil
	}
	return pos
}

func (c *Client) lookupLive(ctx context.Context, mmsi string, timeout time.Duration) *VesselPosition {
	c.mu.Lock()
	if c.credential == "" {
		c.mu.Unlock()
		log.Info().Msg("no live feed credential configured, using fallback only; set one to enable live lookups")
		return nil
	}
	if c.conn == nil {
		if err := c.connectLocked(ctx); err != nil {
			c.mu.Unlock()
			log.Warn().Err(err).Str("endpoint", c.endpoint).Msg("live feed connection failed")
			return nil
		}
	}
	ch := make(chan *VesselPosition, 1)
	entry, pending := c.inflight[mmsi]
	if pending {
		entry.waiters = append(entry.waiters, ch)
	} else {
		entry = &inflightEntry{waiters: []chan *VesselPosition{ch}}
		entry.timer = time.AfterFunc(timeout, func() {
			log.Debug().Str("mmsi", mmsi).Msg("live feed lookup timed out")
			c.complete(mmsi, nil)
		})
		c.inflight[mmsi] = entry
	}
	conn := c.conn
	cred := c.credential
	c.mu.Unlock()

	if !pending {
		// Refine the subscription to this vessel; the broad subscription
		// sent at connection open stays in effect for the socket's life.
		if err := c.sendSubscription(conn, cred, mmsi); err != nil {
			log.Warn().Err(err).Str("mmsi", mmsi).Msg("failed to send vessel subscription")
			c.complete(mmsi, nil)
		}
	}

	select {
	case pos := <-ch:
		return pos
	case <-ctx.Done():
		return nil
	}
}

// connectLocked dials the streaming endpoint and sends the broad
// subscription. Caller must hold c.mu.
func (c *Client) connectLocked(ctx context.Context) error {
	c.state = StateConnecting
	conn, resp, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.state = StateClosed
		return err
	}
	if err := c.sendSubscription(conn, c.credential, ""); err != nil {
		_ = conn.Close()
		c.state = StateClosed
		return err
	}
	c.conn = conn
	c.state = StateOpen
	go c.readLoop(conn)
	log.Info().Str("endpoint", c.endpoint).Msg("live feed connected")
	return nil
}

// sendSubscription writes a subscription frame. An empty mmsi sends the
// broad global-coverage subscription; a non-empty one refines to a single
// vessel.
func (c *Client) sendSubscription(conn *websocket.Conn, key, mmsi string) error {
	sub := subscriptionFrame{
		APIKey:             key,
		BoundingBoxes:      globalCoverage,
		FilterMessageTypes: []string{MessageTypePositionReport, MessageTypeShipStaticData},
	}
	if mmsi != "" {
		sub.FiltersShipMMSI = []string{mmsi}
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(sub)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			c.connectionClosed(conn, err)
			return
		}
		if frame.MessageType != MessageTypePositionReport && frame.MessageType != MessageTypeShipStaticData {
			continue
		}
		pos := frame.position()
		if c.tracker != nil {
			c.tracker.Record(pos)
		}
		c.complete(pos.MMSI, pos)
	}
}

// connectionClosed handles a remote close or read error. Every pending
// lookup is completed with no result immediately instead of waiting out its
// own timer.
func (c *Client) connectionClosed(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		// A Disconnect already took ownership of this connection.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateClosed
	pending := c.inflight
	c.inflight = map[string]*inflightEntry{}
	c.mu.Unlock()

	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		log.Warn().Err(err).Int("pending", len(pending)).Msg("live feed connection dropped")
	} else {
		log.Info().Int("pending", len(pending)).Msg("live feed connection closed")
	}
	for _, entry := range pending {
		entry.timer.Stop()
		for _, ch := range entry.waiters {
			ch <- nil
		}
	}
}

// complete resolves the in-flight entry for mmsi, cancelling its timer and
// delivering pos (possibly nil) to every coalesced waiter. A missing entry
// is a no-op: the frame was unsolicited or the entry already resolved.
func (c *Client) complete(mmsi string, pos *VesselPosition) {
	c.mu.Lock()
	entry, ok := c.inflight[mmsi]
	if ok {
		delete(c.inflight, mmsi)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	entry.timer.Stop()
	for _, ch := range entry.waiters {
		ch <- pos
	}
}

// Disconnect closes the live connection and completes every pending lookup
// with no result. Idempotent: calling it with no open connection is a no-op.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	if conn != nil {
		c.state = StateClosed
	}
	pending := c.inflight
	c.inflight = map[string]*inflightEntry{}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
		log.Info().Msg("live feed disconnected")
	}
	for _, entry := range pending {
		entry.timer.Stop()
		for _, ch := range entry.waiters {
			ch <- nil
		}
	}
}
