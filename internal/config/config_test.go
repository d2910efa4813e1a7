package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/irrbb-bfa-go/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("IRRBB_BACKEND_URL", "")
	t.Setenv("PORT", "")

	cfg := config.Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.BackendURL != "http://localhost:8000" {
		t.Errorf("unexpected backend url %q", cfg.BackendURL)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %v", cfg.HTTPTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard origin, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("IRRBB_BACKEND_URL", "https://irrbb.example.com/")
	t.Setenv("MAX_RETRIES", "0")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg := config.Load()

	if cfg.BackendURL != "https://irrbb.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.BackendURL)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("expected 0 retries, got %d", cfg.MaxRetries)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("expected 30s ttl, got %v", cfg.CacheTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("expected 2 origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadDotEnv_MissingFileIsFine(t *testing.T) {
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("LOG_LEVEL=debug\nIRRBB_TEST_ONLY=\"from-file\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("IRRBB_TEST_ONLY", "")
	os.Unsetenv("IRRBB_TEST_ONLY")

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("LOG_LEVEL"); got != "warn" {
		t.Errorf("expected existing LOG_LEVEL kept, got %q", got)
	}
	if got := os.Getenv("IRRBB_TEST_ONLY"); got != "from-file" {
		t.Errorf("expected value from file, got %q", got)
	}
}

func TestLoadCatalog_Default(t *testing.T) {
	cat, err := config.LoadCatalog("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cat.EVEScenarios) != 6 || cat.EVEScenarios[0] != "Base Case" {
		t.Errorf("unexpected default scenarios %v", cat.EVEScenarios)
	}
	if cat.DefaultAssumptions.NMDEffectiveMaturityYears != 5 {
		t.Errorf("expected 5y default maturity, got %d", cat.DefaultAssumptions.NMDEffectiveMaturityYears)
	}
}

func TestLoadCatalog_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	data := `eve_scenarios:
  - Base Case
  - Steepener
default_assumptions:
  nmd_effective_maturity_years: 7
  nmd_deposit_beta: 0.3
  prepayment_rate: 0.05
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cat, err := config.LoadCatalog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cat.EVEScenarios) != 2 || cat.EVEScenarios[1] != "Steepener" {
		t.Errorf("unexpected scenarios %v", cat.EVEScenarios)
	}
	if len(cat.NIIBreakdowns) != 3 {
		t.Errorf("expected default breakdowns kept, got %v", cat.NIIBreakdowns)
	}
	if cat.DefaultAssumptions.NMDDepositBeta != 0.3 {
		t.Errorf("expected beta 0.3, got %v", cat.DefaultAssumptions.NMDDepositBeta)
	}
}

func TestLoadCatalog_RejectsBadAssumptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	data := "default_assumptions:\n  nmd_effective_maturity_years: 0\n  nmd_deposit_beta: 0.5\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := config.LoadCatalog(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadCatalog_RejectsCommaInScenarioName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comma.yaml")
	data := "eve_scenarios:\n  - Base Case\n  - \"Twist, Short Up\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := config.LoadCatalog(path); err == nil {
		t.Fatal("expected comma in scenario name to be rejected")
	}
}
