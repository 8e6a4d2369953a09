package aislookup

import (
	"os"
	"testing"

	"github.com/theoremus-urban-solutions/ais-vessel-lookup/ais"
	"github.com/theoremus-urban-solutions/ais-vessel-lookup/scrape"
)

// chdir switches to dir for the duration of the test. It stands in for
// t.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoadAppConfigDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	if err := LoadAppConfig(); err != nil {
		t.Fatalf("LoadAppConfig without a file: %v", err)
	}
	if Config.Server.Port != 16182 {
		t.Errorf("default port = %d", Config.Server.Port)
	}
	if Config.Feed.EndpointURL != ais.DefaultEndpoint {
		t.Errorf("default endpoint = %q", Config.Feed.EndpointURL)
	}
	if Config.Feed.LookupTimeoutMS != 30000 {
		t.Errorf("default lookup timeout = %d", Config.Feed.LookupTimeoutMS)
	}
	if len(Config.Scrape.Proxies) != len(scrape.DefaultProxies) {
		t.Errorf("default proxies = %v", Config.Scrape.Proxies)
	}
	if Config.Cache.TTLSeconds != 60 {
		t.Errorf("default cache TTL = %d", Config.Cache.TTLSeconds)
	}
}

func TestLoadAppConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	cfgYAML := `server:
  port: 9000
feed:
  endpointURL: wss://example.test/stream
  lookupTimeoutMS: 5000
scrape:
  proxies:
    - https://relay.test/?u=%s
  timeoutMS: 2000
cache:
  ttlSeconds: 10
`
	if err := os.WriteFile("config.yml", []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := LoadAppConfig(); err != nil {
		t.Fatalf("LoadAppConfig: %v", err)
	}
	if Config.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", Config.Server.Port)
	}
	if Config.Feed.EndpointURL != "wss://example.test/stream" {
		t.Errorf("endpoint = %q", Config.Feed.EndpointURL)
	}
	if Config.Feed.LookupTimeoutMS != 5000 {
		t.Errorf("lookup timeout = %d", Config.Feed.LookupTimeoutMS)
	}
	if len(Config.Scrape.Proxies) != 1 || Config.Scrape.Proxies[0] != "https://relay.test/?u=%s" {
		t.Errorf("proxies = %v", Config.Scrape.Proxies)
	}
	// Unset fields still get defaults.
	if Config.Scrape.UserAgent != scrape.DefaultUserAgent {
		t.Errorf("user agent not defaulted: %q", Config.Scrape.UserAgent)
	}
	if Config.Feed.CredentialFile == "" {
		t.Error("credential file not defaulted")
	}
}

func TestLoadAppConfigRejectsBadFeedURL(t *testing.T) {
	chdir(t, t.TempDir())
	cfgYAML := `server:
  port: 9000
feed:
  endpointURL: not-a-url
`
	if err := os.WriteFile("config.yml", []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadAppConfig(); err == nil {
		t.Fatal("expected validation error for malformed endpoint URL")
	}
}
