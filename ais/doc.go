// Package ais resolves vessel identifiers (MMSI) to last-known positions.
//
// This package handles:
// - A live AIS websocket feed (aisstream.io wire protocol) with a broad
//   subscription kept open for the life of the connection
// - Correlation of asynchronous inbound frames to pending per-vessel lookups
// - Bounded wait per lookup, falling back to a pluggable FallbackResolver
// - A last-known-position Tracker fed by every accepted frame
//
// The Client never surfaces transport errors to callers: a lookup either
// yields a VesselPosition or nil, regardless of what failed along the way.
package ais
