package goSession

import (
	"testing"
	"time"

	"github.com/MrEthical07/goSession/policy"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
	if cfg.Guard.TimeoutPolicy != FailClosed {
		t.Fatal("expected fail-closed guard timeout policy by default")
	}
	if cfg.Credentials.ExpirySkew != 30*time.Second {
		t.Fatalf("unexpected default skew %v", cfg.Credentials.ExpirySkew)
	}
	if cfg.Refresh.Interval != 15*time.Minute {
		t.Fatalf("unexpected default refresh interval %v", cfg.Refresh.Interval)
	}
	for _, role := range []policy.Role{policy.RoleStudent, policy.RoleInstructor, policy.RoleAdmin} {
		if cfg.Guard.Dashboards[role] == "" {
			t.Fatalf("expected default dashboard for role %q", role)
		}
	}
}

func TestConfigValidateRejectsBadRanges(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative skew", func(c *Config) { c.Credentials.ExpirySkew = -time.Second }},
		{"huge skew", func(c *Config) { c.Credentials.ExpirySkew = 10 * time.Minute }},
		{"tiny refresh interval", func(c *Config) { c.Refresh.Interval = time.Second }},
		{"zero call timeout", func(c *Config) { c.API.CallTimeout = 0 }},
		{"huge call timeout", func(c *Config) { c.API.CallTimeout = 5 * time.Minute }},
		{"zero guard wait", func(c *Config) { c.Guard.WaitTimeout = 0 }},
		{"bad timeout policy", func(c *Config) { c.Guard.TimeoutPolicy = TimeoutPolicy(7) }},
		{"empty login path", func(c *Config) { c.Guard.LoginPath = "" }},
		{"empty redirect param", func(c *Config) { c.Guard.RedirectParam = "" }},
		{"missing dashboard", func(c *Config) { delete(c.Guard.Dashboards, policy.RoleAdmin) }},
	}

	for _, tc := range mutations {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation failure", tc.name)
		}
	}
}

func TestBuilderClonesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.CallTimeout = time.Second
	api := &fakeAPI{}

	m, err := New().WithConfig(cfg).WithAPI(api).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	// Mutating the caller's map must not reach the live manager.
	cfg.Guard.Dashboards[policy.RoleAdmin] = "/mutated"
	if got := m.GuardConfig().Dashboards[policy.RoleAdmin]; got == "/mutated" {
		t.Fatal("manager config aliased the caller's dashboard map")
	}
}

func TestBuilderRequiresAPI(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected build failure without an API client")
	}
}

func TestBuilderOneShot(t *testing.T) {
	b := New().WithAPI(&fakeAPI{})
	if _, err := b.Build(); err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second build to fail")
	}
}

func TestTimeoutPolicyString(t *testing.T) {
	if FailClosed.String() != "fail-closed" || FailOpen.String() != "fail-open" {
		t.Fatal("unexpected timeout policy names")
	}
}
