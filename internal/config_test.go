package internal

import (
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestHTTPConfig_PortBounds(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := HTTPConfig{Port: port}
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d should fail validation", port)
		}
	}
	cfg := HTTPConfig{Port: 8080}
	if err := cfg.Validate(); err != nil {
		t.Errorf("port 8080 should pass: %v", err)
	}
	if addr := cfg.Address(); addr != ":8080" {
		t.Errorf("address = %q, want :8080", addr)
	}
}

func TestPipelineConfig_RequiresPositiveValues(t *testing.T) {
	cfg := PipelineConfig{QueueCapacity: 1024, BatchSize: 0, Workers: 1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero batch size should fail validation")
	}
	cfg = PipelineConfig{QueueCapacity: 0, BatchSize: 10, Workers: 1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero queue capacity should fail validation")
	}
	cfg = PipelineConfig{QueueCapacity: 1, BatchSize: 1, Workers: 1}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("minimal pipeline config should pass: %v", err)
	}
}

func TestEthereumConfig_DisabledSkipsConnectionFields(t *testing.T) {
	cfg := EthereumConfig{MaxPendingTxs: 8, Disable: true}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled ledger should pass without connection fields: %v", err)
	}
}

func TestEthereumConfig_EnabledRequiresConnectionFields(t *testing.T) {
	cfg := EthereumConfig{MaxPendingTxs: 8, Disable: false}
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled ledger without url/contract/key should fail")
	}

	cfg = EthereumConfig{
		URL:           "http://localhost:8545",
		Contract:      "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		PrivateKey:    "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
		MaxPendingTxs: 8,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("complete ledger config should pass: %v", err)
	}
}

func TestEthereumConfig_MaxPendingAlwaysRequired(t *testing.T) {
	cfg := EthereumConfig{Disable: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero max_pending_txs should fail even when disabled")
	}
}

func TestElasticConfig_DisabledStillRequiresIndexLayout(t *testing.T) {
	cfg := ElasticConfig{Disable: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty index layout should fail even when disabled")
	}
	cfg = ElasticConfig{IndexLayout: "audita-2006.01.02", Disable: true}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled store with layout should pass: %v", err)
	}
}

func TestElasticConfig_EnabledRequiresConnectionFields(t *testing.T) {
	cfg := ElasticConfig{IndexLayout: "audita-2006.01.02"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled store without credentials should fail")
	}
}

func TestFullConfig_SectionValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Pipeline.BatchSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch pipeline error")
	}
}
