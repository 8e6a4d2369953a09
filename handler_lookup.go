package aislookup

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/theoremus-urban-solutions/ais-vessel-lookup/ais"
)

// handleVesselLookup serves GET /api/vessel/lookup.json?mmsi=&timeoutMS=.
// A lookup miss is a 404 with a JSON body, not a 500: "no position" is an
// expected outcome, the only client errors are malformed query parameters.
func handleVesselLookup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	mmsi := r.URL.Query().Get("mmsi")
	if mmsi == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(buildErrorPayload("vesselLookup", "missing mmsi parameter"))
		return
	}
	timeout := time.Duration(Config.Feed.LookupTimeoutMS) * time.Millisecond
	if raw := r.URL.Query().Get("timeoutMS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write(buildErrorPayload("vesselLookup", "invalid timeoutMS parameter"))
			return
		}
		timeout = time.Duration(ms) * time.Millisecond
	}
	if pos, ok := posCache.Get(mmsi); ok {
		_ = json.NewEncoder(w).Encode(pos)
		return
	}
	pos := resolver.Lookup(r.Context(), mmsi, timeout)
	if pos == nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write(buildErrorPayload("vesselLookup", "no position available for "+mmsi))
		return
	}
	posCache.Put(mmsi, pos)
	_ = json.NewEncoder(w).Encode(pos)
}

type vesselsResponse struct {
	Count   int                  `json:"count"`
	Vessels []ais.VesselPosition `json:"vessels"`
}

// handleVessels serves GET /api/vessels.json: every last-known position the
// live feed has delivered since the connection opened.
func handleVessels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := vesselsResponse{Vessels: []ais.VesselPosition{}}
	if snapshot != nil {
		resp.Vessels = snapshot.Snapshot()
	}
	resp.Count = len(resp.Vessels)
	_ = json.NewEncoder(w).Encode(resp)
}
