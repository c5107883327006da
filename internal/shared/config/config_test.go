package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "ledger-service")

	cfg := Load()
	if cfg.HTTPPort != "8082" {
		t.Errorf("http port: got %s, want 8082", cfg.HTTPPort)
	}
	if cfg.MinConfirmations != 3 {
		t.Errorf("min confirmations: got %d, want 3", cfg.MinConfirmations)
	}
	if cfg.LockTimeoutMs != 3000 {
		t.Errorf("lock timeout: got %d, want 3000", cfg.LockTimeoutMs)
	}
	if cfg.TopicDepositEvents != "deposit_events" {
		t.Errorf("topic: got %s", cfg.TopicDepositEvents)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "deposit-worker")
	t.Setenv("MIN_CONFIRMATIONS", "6")
	t.Setenv("LEDGER_CURRENCY", "BRL")

	cfg := Load()
	if cfg.MinConfirmations != 6 {
		t.Errorf("min confirmations: got %d, want 6", cfg.MinConfirmations)
	}
	if cfg.Currency != "BRL" {
		t.Errorf("currency: got %s, want BRL", cfg.Currency)
	}
	if cfg.HTTPPort != "" {
		t.Errorf("worker should not expose public http, got %q", cfg.HTTPPort)
	}
}

func TestGetEnvIntInvalid(t *testing.T) {
	t.Setenv("MIN_CONFIRMATIONS", "not-a-number")

	cfg := Load()
	if cfg.MinConfirmations != 3 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.MinConfirmations)
	}
}
