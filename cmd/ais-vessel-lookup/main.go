package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	lib "github.com/theoremus-urban-solutions/ais-vessel-lookup"
	"github.com/theoremus-urban-solutions/ais-vessel-lookup/ais"
	"github.com/theoremus-urban-solutions/ais-vessel-lookup/credstore"
	"github.com/theoremus-urban-solutions/ais-vessel-lookup/scrape"
)

func main() {
	mode := flag.String("mode", "oneshot", "oneshot|serve")
	mmsi := flag.String("mmsi", "", "9-digit MMSI to resolve (oneshot mode)")
	timeoutMS := flag.Int("timeoutMS", 0, "live feed wait in milliseconds (overrides config)")
	apiKey := flag.String("apikey", "", "aisstream.io API key; persisted for future runs")
	flag.Parse()

	lib.InitLogging()
	if err := lib.LoadAppConfig(); err != nil {
		panic(err)
	}
	cfg := lib.Config

	store := credstore.New(cfg.Feed.CredentialFile)
	scraper := scrape.New(scrape.Config{
		TargetURL: cfg.Scrape.TargetURL,
		Proxies:   cfg.Scrape.Proxies,
		UserAgent: cfg.Scrape.UserAgent,
		Timeout:   time.Duration(cfg.Scrape.TimeoutMS) * time.Millisecond,
	})
	tracker := ais.NewTracker()
	client := ais.NewClient(ais.ClientConfig{
		Endpoint: cfg.Feed.EndpointURL,
		Store:    store,
		Fallback: scraper,
		Tracker:  tracker,
	})
	defer client.Disconnect()

	if *apiKey != "" {
		client.SetCredential(*apiKey)
	}

	timeout := time.Duration(cfg.Feed.LookupTimeoutMS) * time.Millisecond
	if *timeoutMS > 0 {
		timeout = time.Duration(*timeoutMS) * time.Millisecond
	}

	switch *mode {
	case "oneshot":
		if *mmsi == "" {
			fmt.Fprintln(os.Stderr, "oneshot mode requires -mmsi")
			os.Exit(2)
		}
		pos := client.Lookup(context.Background(), *mmsi, timeout)
		if pos == nil {
			fmt.Println("no position found")
			return
		}
		buf, _ := json.MarshalIndent(pos, "", "  ")
		fmt.Println(string(buf))
	case "serve":
		lib.StartServer(client, tracker)
		lib.HandleGracefulShutdown()
	default:
		panic("unknown mode")
	}
}
