package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("default port: got %q", cfg.Port)
	}
	if cfg.PageSize != 10 {
		t.Fatalf("default page size: got %d", cfg.PageSize)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("default token ttl: got %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.CartTTLMinutes != 720 {
		t.Fatalf("default cart ttl: got %d", cfg.CartTTLMinutes)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("API_KEYS", "alpha, beta ,,gamma")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "not-a-number")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Fatalf("port: got %q", cfg.Port)
	}
	if cfg.PageSize != 25 {
		t.Fatalf("page size: got %d", cfg.PageSize)
	}
	if len(cfg.APIKeys) != 3 || cfg.APIKeys[0] != "alpha" || cfg.APIKeys[1] != "beta" || cfg.APIKeys[2] != "gamma" {
		t.Fatalf("api keys: got %v", cfg.APIKeys)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("bad ttl must fall back to default, got %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.Address() != ":9090" {
		t.Fatalf("address: got %q", cfg.Address())
	}
}
