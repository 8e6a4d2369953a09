package aislookup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/theoremus-urban-solutions/ais-vessel-lookup/ais"
)

type fakeResolver struct {
	calls int
	pos   *ais.VesselPosition
}

func (f *fakeResolver) Lookup(ctx context.Context, mmsi string, timeout time.Duration) *ais.VesselPosition {
	f.calls++
	return f.pos
}

func setupHandlers(t *testing.T, r VesselResolver, s SnapshotSource) {
	t.Helper()
	resolver = r
	snapshot = s
	posCache = NewPositionCache(time.Minute)
	Config = AppConfig{}
	applyConfigDefaults(&Config)
}

func TestHandleVesselLookupMissingMMSI(t *testing.T) {
	setupHandlers(t, &fakeResolver{}, nil)

	rec := httptest.NewRecorder()
	handleVesselLookup(rec, httptest.NewRequest(http.MethodGet, "/api/vessel/lookup.json", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	var payload errorPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("error body not JSON: %v", err)
	}
	if payload.Call != "vesselLookup" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestHandleVesselLookupInvalidTimeout(t *testing.T) {
	setupHandlers(t, &fakeResolver{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/vessel/lookup.json?mmsi=123456789&timeoutMS=abc", nil)
	handleVesselLookup(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleVesselLookupMiss(t *testing.T) {
	fr := &fakeResolver{}
	setupHandlers(t, fr, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/vessel/lookup.json?mmsi=123456789", nil)
	handleVesselLookup(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("lookup miss status = %d, want 404", rec.Code)
	}
	if fr.calls != 1 {
		t.Errorf("resolver called %d times", fr.calls)
	}
}

func TestHandleVesselLookupHitAndCache(t *testing.T) {
	fr := &fakeResolver{pos: &ais.VesselPosition{MMSI: "123456789", Latitude: 51.5, Longitude: -0.12, LastUpdate: "2024-01-01T00:00:00Z"}}
	setupHandlers(t, fr, nil)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/vessel/lookup.json?mmsi=123456789", nil)
		handleVesselLookup(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var pos ais.VesselPosition
		if err := json.Unmarshal(rec.Body.Bytes(), &pos); err != nil {
			t.Fatalf("body not JSON: %v", err)
		}
		if pos.MMSI != "123456789" || pos.Latitude != 51.5 {
			t.Errorf("body = %+v", pos)
		}
	}
	if fr.calls != 1 {
		t.Errorf("resolver called %d times, want 1 (second request served from cache)", fr.calls)
	}
}

func TestHandleVessels(t *testing.T) {
	tr := ais.NewTracker()
	tr.Record(&ais.VesselPosition{MMSI: "123456789", Latitude: 1})
	setupHandlers(t, &fakeResolver{}, tr)

	rec := httptest.NewRecorder()
	handleVessels(rec, httptest.NewRequest(http.MethodGet, "/api/vessels.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp vesselsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if resp.Count != 1 || len(resp.Vessels) != 1 || resp.Vessels[0].MMSI != "123456789" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleHealth(t *testing.T) {
	tr := ais.NewTracker()
	tr.Record(&ais.VesselPosition{MMSI: "123456789"})
	setupHandlers(t, &fakeResolver{}, tr)

	rec := httptest.NewRecorder()
	handleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if resp.Status != "ok" || resp.TrackedVessels != 1 {
		t.Errorf("health = %+v", resp)
	}
}
