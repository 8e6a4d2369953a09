package ais

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AIS message kinds the client subscribes to. Frames with any other
// MessageType are ignored.
const (
	MessageTypePositionReport = "PositionReport"
	MessageTypeShipStaticData = "ShipStaticData"
)

// VesselPosition is a resolved last-known position for one vessel.
//
// Additional is an open bag of raw source fields kept for provenance and
// debugging. It is non-contractual: callers must not branch on its contents.
type VesselPosition struct {
	MMSI       string         `json:"mmsi"`
	Name       string         `json:"name,omitempty"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	LastUpdate string         `json:"lastUpdate"`
	Additional map[string]any `json:"additional,omitempty"`
}

// ConnState describes the live connection lifecycle:
// Absent -> Connecting -> Open -> Closed, with Closed -> Connecting on a
// later lookup.
type ConnState int

const (
	StateAbsent ConnState = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// subscriptionFrame is the outbound subscription message. The MMSI filter is
// present only on per-lookup refinement frames; the connection-open frame
// declares global coverage with no vessel filter.
type subscriptionFrame struct {
	APIKey             string        `json:"APIKey"`
	BoundingBoxes      [][][]float64 `json:"BoundingBoxes"`
	FilterMessageTypes []string      `json:"FilterMessageTypes"`
	FiltersShipMMSI    []string      `json:"FiltersShipMMSI,omitempty"`
}

// globalCoverage is one bounding box spanning the whole globe.
var globalCoverage = [][][]float64{{{-90, -180}, {90, 180}}}

type frameMetadata struct {
	MMSI      int64   `json:"MMSI"`
	ShipName  string  `json:"ShipName"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	TimeUTC   string  `json:"time_utc"`
}

type inboundFrame struct {
	MessageType string          `json:"MessageType"`
	MetaData    frameMetadata   `json:"MetaData"`
	Message     json.RawMessage `json:"Message"`
}

// position builds a VesselPosition from an accepted frame. The MMSI is
// zero-padded back to nine digits so it matches the identifier the lookup
// was keyed with.
func (f *inboundFrame) position() *VesselPosition {
	pos := &VesselPosition{
		MMSI:       fmt.Sprintf("%09d", f.MetaData.MMSI),
		Name:       strings.TrimSpace(f.MetaData.ShipName),
		Latitude:   f.MetaData.Latitude,
		Longitude:  f.MetaData.Longitude,
		LastUpdate: f.MetaData.TimeUTC,
		Additional: map[string]any{"messageType": f.MessageType},
	}
	if len(f.Message) > 0 {
		pos.Additional["raw"] = f.Message
	}
	if pos.LastUpdate == "" {
		pos.LastUpdate = time.Now().UTC().Format(time.RFC3339)
	}
	return pos
}
