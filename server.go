package aislookup

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/ais-vessel-lookup/ais"
)

// VesselResolver is what the lookup handler needs from the AIS client: a
// position or nil, never an error.
type VesselResolver interface {
	Lookup(ctx context.Context, mmsi string, timeout time.Duration) *ais.VesselPosition
}

// SnapshotSource exposes the tracker's last-known positions.
type SnapshotSource interface {
	Snapshot() []ais.VesselPosition
}

var (
	server   *http.Server
	resolver VesselResolver
	snapshot SnapshotSource
	posCache *PositionCache
)

func StartServer(r VesselResolver, s SnapshotSource) {
	resolver = r
	snapshot = s
	posCache = NewPositionCache(time.Duration(Config.Cache.TTLSeconds) * time.Second)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", handleHealth)
	mux.HandleFunc("/api/vessel/lookup.json", handleVesselLookup)
	mux.HandleFunc("/api/vessels.json", handleVessels)

	addr := fmt.Sprintf(":%d", Config.Server.Port)
	server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()
	log.Info().Str("addr", addr).Msg("server listening")
}

func HandleGracefulShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info().Msg("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		} else {
			log.Info().Msg("server shut down successfully")
		}
	}
}
