package config

import (
	"testing"
)

func validConfig() Config {
	cfg := Config{
		Ops: OpsConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Ops.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.VectorWeight = 0.8
	cfg.Retrieval.KeywordWeight = 0.3

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for weights not summing to 1")
	}
}

func TestValidate_ExpansionCap(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.MaxExpansionQueries = 50

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for oversized expansion cap")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Ops.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.Ops.ReadTimeoutSec)
	}
	if cfg.Retrieval.IndexName != "hybridex_passages" {
		t.Errorf("expected default index name, got %q", cfg.Retrieval.IndexName)
	}
	if cfg.Retrieval.VectorWeight != 0.7 || cfg.Retrieval.KeywordWeight != 0.3 {
		t.Errorf("expected default weights 0.7/0.3, got %g/%g",
			cfg.Retrieval.VectorWeight, cfg.Retrieval.KeywordWeight)
	}
	if cfg.Retrieval.EmbeddingCacheTTLSec != 3600 {
		t.Errorf("expected embedding TTL 3600, got %d", cfg.Retrieval.EmbeddingCacheTTLSec)
	}
	if cfg.Retrieval.ResponseCacheTTLSec != 1800 {
		t.Errorf("expected response TTL 1800, got %d", cfg.Retrieval.ResponseCacheTTLSec)
	}
	if cfg.Retrieval.MaxExpansionQueries != 5 {
		t.Errorf("expected expansion cap 5, got %d", cfg.Retrieval.MaxExpansionQueries)
	}
}

func TestApplyDefaults_KeepsExplicitWeights(t *testing.T) {
	cfg := Config{}
	cfg.Retrieval.VectorWeight = 0.5
	cfg.Retrieval.KeywordWeight = 0.5
	cfg.ApplyDefaults()

	if cfg.Retrieval.VectorWeight != 0.5 || cfg.Retrieval.KeywordWeight != 0.5 {
		t.Errorf("explicit weights overwritten: %g/%g",
			cfg.Retrieval.VectorWeight, cfg.Retrieval.KeywordWeight)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("HYBRIDEX_TEST_PASSWORD", "s3cret")

	in := []byte("password: ${HYBRIDEX_TEST_PASSWORD}\nmodel: ${HYBRIDEX_TEST_MISSING:-fallback}\n")
	out := string(expandEnvVars(in))

	want := "password: s3cret\nmodel: fallback\n"
	if out != want {
		t.Errorf("expandEnvVars = %q, want %q", out, want)
	}
}

func TestGetEnv_Default(t *testing.T) {
	t.Setenv("ENV", "")

	if env := GetEnv(); env != "local" {
		t.Errorf("GetEnv() = %q, want local", env)
	}
}
