package aislookup

import (
	"encoding/json"
	"net/http"
)

type healthResponse struct {
	Status         string `json:"status"`
	TrackedVessels int    `json:"tracked_vessels"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := healthResponse{Status: "ok"}
	if snapshot != nil {
		resp.TrackedVessels = len(snapshot.Snapshot())
	}
	_ = json.NewEncoder(w).Encode(resp)
}
