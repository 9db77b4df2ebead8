package config

import (
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.HookThrottle != 5*time.Minute {
		t.Errorf("expected default hook throttle of 5m, got %s", cfg.HookThrottle)
	}
	if cfg.CWUMaxBudget != 70000 || cfg.SWUMaxBudget != 2000000 {
		t.Errorf("unexpected default budget caps: %v / %v", cfg.CWUMaxBudget, cfg.SWUMaxBudget)
	}
}

func TestConfigHookThrottleFromEnv(t *testing.T) {
	t.Setenv("HOOK_THROTTLE", "30s")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HookThrottle != 30*time.Second {
		t.Errorf("expected 30s hook throttle, got %s", cfg.HookThrottle)
	}
}
