package config

import "testing"

func TestGetEnvList(t *testing.T) {
	t.Setenv("TEST_LIST", "a, b,,c ")
	got := getEnvList("TEST_LIST", "")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGetEnvPairs(t *testing.T) {
	t.Setenv("TEST_PAIRS", "rinkeby=http://geth:8545,polygon=https://bor.example,broken")
	got := getEnvPairs("TEST_PAIRS", "")
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	if got["rinkeby"] != "http://geth:8545" {
		t.Errorf("rinkeby = %q", got["rinkeby"])
	}
	if got["polygon"] != "https://bor.example" {
		t.Errorf("polygon = %q", got["polygon"])
	}
}

func TestGetEnvMultiPairs(t *testing.T) {
	t.Setenv("TEST_POOL", "polygon=http://a:8545,polygon=http://b:8545,rinkeby=http://c:8545")
	got := getEnvMultiPairs("TEST_POOL", "")
	if len(got["polygon"]) != 2 {
		t.Errorf("polygon = %v", got["polygon"])
	}
	if len(got["rinkeby"]) != 1 {
		t.Errorf("rinkeby = %v", got["rinkeby"])
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("max retries = %d", cfg.MaxRetries)
	}
	if cfg.RetentionUnits != 600 {
		t.Errorf("retention = %d", cfg.RetentionUnits)
	}
	if cfg.RelayTimeout.Seconds() != 15 {
		t.Errorf("relay timeout = %s", cfg.RelayTimeout)
	}
	if len(cfg.AllowedNetworks) == 0 {
		t.Error("no allowed networks")
	}
	for _, network := range cfg.AllowedNetworks {
		if cfg.BackupEndpoints[network] == "" {
			t.Errorf("no default backup endpoint for %s", network)
		}
	}
}
