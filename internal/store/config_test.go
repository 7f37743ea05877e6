package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "universe: [BHP, CBA]\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Mode != "DRY_RUN" {
		t.Errorf("default mode = %q, want DRY_RUN", cfg.Mode)
	}
	if cfg.Exchange != "ASX" {
		t.Errorf("default exchange = %q, want ASX", cfg.Exchange)
	}
	if cfg.Account.MaxPositionSize != 10000 {
		t.Errorf("default max_position_size = %v, want 10000", cfg.Account.MaxPositionSize)
	}
	if cfg.Account.DefaultPrice != 100 {
		t.Errorf("default default_price = %v, want 100", cfg.Account.DefaultPrice)
	}
	if cfg.Broker.Provider != "SIM" {
		t.Errorf("default broker.provider = %q, want SIM", cfg.Broker.Provider)
	}
	if cfg.Schedule.CycleMinutes != 90 {
		t.Errorf("default cycle_minutes = %d, want 90", cfg.Schedule.CycleMinutes)
	}
	if cfg.MarketData.Workers != 8 {
		t.Errorf("default marketdata.workers = %d, want 8", cfg.MarketData.Workers)
	}
}

func TestLoadConfigCapsWorkers(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "universe: [BHP]\nmarketdata:\n  workers: 50\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MarketData.Workers != 20 {
		t.Errorf("workers = %d, want capped at 20", cfg.MarketData.Workers)
	}
}

func TestLoadConfigRejectsBadMode(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "mode: SOMETIMES\nuniverse: [BHP]\n"))
	if err == nil {
		t.Fatal("expected error for invalid mode")
	}
	if !strings.Contains(err.Error(), "SOMETIMES") {
		t.Errorf("error should quote the bad value, got %v", err)
	}
}

func TestLoadConfigRequiresUniverse(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "mode: DRY_RUN\n")); err == nil {
		t.Fatal("expected error for empty universe")
	}
}

func TestLoadConfigRejectsIGInDryRun(t *testing.T) {
	body := "mode: DRY_RUN\nuniverse: [BHP]\nbroker:\n  provider: IG\n"
	if _, err := LoadConfig(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for IG broker without LIVE mode")
	}
}

func TestLoadConfigRejectsBadOverallRisk(t *testing.T) {
	body := "universe: [BHP]\nrisk:\n  overall: SCARY\n"
	if _, err := LoadConfig(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for invalid risk.overall")
	}
}

func TestLoadConfigAcceptsFixedOverallRisk(t *testing.T) {
	body := "universe: [BHP]\nrisk:\n  overall: medium\n"
	cfg, err := LoadConfig(writeConfig(t, body))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Risk.Overall != "medium" {
		t.Errorf("risk.overall = %q, want preserved as written", cfg.Risk.Overall)
	}
}
