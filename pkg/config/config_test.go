package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAppEnv, "development")
	t.Setenv("POINGEST_DB_DSN", "postgres://localhost:5432/poingest?sslmode=disable")
	t.Setenv("POINGEST_SHOPIFY_SHOP_DOMAIN", "acme-wholesale.myshopify.com")
	t.Setenv("POINGEST_SHOPIFY_ACCESS_TOKEN", "shpat_test")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.App.Port != "8080" {
		t.Fatalf("unexpected default port %q", cfg.App.Port)
	}
	if !cfg.App.IsDev() {
		t.Fatal("expected dev environment")
	}
	if cfg.Intake.MaxFileSizeBytes != 10485760 {
		t.Fatalf("unexpected max file size %d", cfg.Intake.MaxFileSizeBytes)
	}
	if cfg.Resolver.Concurrency != 8 {
		t.Fatalf("unexpected resolver concurrency %d", cfg.Resolver.Concurrency)
	}
	if cfg.Resolver.VariantCacheTTL != 10*time.Minute {
		t.Fatalf("unexpected cache ttl %s", cfg.Resolver.VariantCacheTTL)
	}
	if cfg.Shopify.APIVersion != "2025-01" {
		t.Fatalf("unexpected api version %q", cfg.Shopify.APIVersion)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POINGEST_SHOPIFY_ACCESS_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when access token missing")
	}
}

func TestIsProd(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvAppEnv, "PRODUCTION")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.App.IsProd() {
		t.Fatal("expected prod environment")
	}
}
