package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Pipeline.IDMinRate != 0.95 {
		t.Fatalf("expected default acceptance threshold 0.95, got %v", cfg.Pipeline.IDMinRate)
	}
	if len(cfg.Pipeline.IDStrategies) != 2 || cfg.Pipeline.IDStrategies[0] != "document_id" {
		t.Fatalf("unexpected default strategy order: %v", cfg.Pipeline.IDStrategies)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("PIPELINE_ID_STRATEGIES", "source_url, document_id")
	t.Setenv("PIPELINE_ID_MIN_RATE", "0.9")

	cfg := FromEnv()

	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 6543 {
		t.Fatalf("overrides not applied: %+v", cfg.Database)
	}
	if cfg.Pipeline.IDMinRate != 0.9 {
		t.Fatalf("expected threshold 0.9, got %v", cfg.Pipeline.IDMinRate)
	}
	want := []string{"source_url", "document_id"}
	for i, s := range want {
		if cfg.Pipeline.IDStrategies[i] != s {
			t.Fatalf("expected strategy order %v, got %v", want, cfg.Pipeline.IDStrategies)
		}
	}
}

func TestFromEnvBadNumberFallsBack(t *testing.T) {
	t.Setenv("POSTGRES_PORT", "not-a-port")

	cfg := FromEnv()
	if cfg.Database.Port != 5432 {
		t.Fatalf("expected fallback port 5432, got %d", cfg.Database.Port)
	}
}
