package config

import (
	"os"
	"testing"
)

// clearStripeEnv unsets the env vars Load reads so tests see defaults.
func clearStripeEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATABASE_URL",
		"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "STRIPE_MODE",
		"DOMESTIC_COUNTRY", "INTERNATIONAL_SHIPPING_COST",
	} {
		if v, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, v) })
		}
	}
}

func TestLoad_RequiresStripeSecretKey(t *testing.T) {
	clearStripeEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error when STRIPE_SECRET_KEY is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearStripeEnv(t)
	os.Setenv("STRIPE_SECRET_KEY", "sk_test_abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: want 8080, got %d", cfg.Port)
	}
	if cfg.StripeMode != ModeTest {
		t.Errorf("StripeMode: want %q, got %q", ModeTest, cfg.StripeMode)
	}
	if !cfg.TestMode() {
		t.Error("TestMode: want true for default mode")
	}
	if cfg.DomesticCountry != "GB" {
		t.Errorf("DomesticCountry: want 'GB', got %q", cfg.DomesticCountry)
	}
	if !cfg.InternationalShippingCost.IsZero() {
		t.Errorf("InternationalShippingCost: want 0, got %s", cfg.InternationalShippingCost)
	}
}

func TestLoad_RejectsUnknownMode(t *testing.T) {
	clearStripeEnv(t)
	os.Setenv("STRIPE_SECRET_KEY", "sk_test_abc")
	os.Setenv("STRIPE_MODE", "sandbox")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown STRIPE_MODE")
	}
}

func TestLoad_ParsesSurcharge(t *testing.T) {
	clearStripeEnv(t)
	os.Setenv("STRIPE_SECRET_KEY", "sk_test_abc")
	os.Setenv("INTERNATIONAL_SHIPPING_COST", "9.99")
	os.Setenv("DOMESTIC_COUNTRY", "US")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.InternationalShippingCost.StringFixed(2); got != "9.99" {
		t.Errorf("InternationalShippingCost: want 9.99, got %s", got)
	}
	if cfg.DomesticCountry != "US" {
		t.Errorf("DomesticCountry: want 'US', got %q", cfg.DomesticCountry)
	}
}

func TestLoad_RejectsNegativeSurcharge(t *testing.T) {
	clearStripeEnv(t)
	os.Setenv("STRIPE_SECRET_KEY", "sk_test_abc")
	os.Setenv("INTERNATIONAL_SHIPPING_COST", "-5")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative surcharge")
	}
}

func TestLoadDev_FallsBackToFakeKey(t *testing.T) {
	clearStripeEnv(t)

	cfg := LoadDev()
	if cfg == nil {
		t.Fatal("LoadDev returned nil")
	}
	if cfg.StripeSecretKey != "sk_test_fake" {
		t.Errorf("StripeSecretKey: want 'sk_test_fake', got %q", cfg.StripeSecretKey)
	}
	if cfg.StripeMode != ModeTest {
		t.Errorf("StripeMode: want %q, got %q", ModeTest, cfg.StripeMode)
	}
}
