package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("COURT_LISTENER_API_TOKEN", "")
	t.Setenv("RAG_SCOTUS_MIN_TOKENS", "")
	t.Setenv("RAG_EO_OVERLAP_RATIO", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScotusChunking.MinTokens != 500 || cfg.ScotusChunking.MaxTokens != 800 {
		t.Fatalf("unexpected scotus chunking defaults: %+v", cfg.ScotusChunking)
	}
	if cfg.EOChunking.OverlapRatio != 0.10 {
		t.Fatalf("unexpected eo overlap default: %v", cfg.EOChunking.OverlapRatio)
	}
	if cfg.Qdrant.Port != 6333 || cfg.Qdrant.GRPCPort != 6334 {
		t.Fatalf("unexpected qdrant defaults: %+v", cfg.Qdrant)
	}
	if cfg.MCP.DefaultLimit != 10 || cfg.MCP.MaxLimit != 50 {
		t.Fatalf("unexpected mcp defaults: %+v", cfg.MCP)
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("RAG_SCOTUS_MIN_TOKENS", "100")
	t.Setenv("RAG_SCOTUS_MAX_TOKENS", "200")
	t.Setenv("RAG_SCOTUS_OVERLAP_RATIO", "0.25")
	t.Setenv("MCP_DEFAULT_SEARCH_LIMIT", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScotusChunking.MinTokens != 100 || cfg.ScotusChunking.MaxTokens != 200 {
		t.Fatalf("env override not applied: %+v", cfg.ScotusChunking)
	}
	if cfg.ScotusChunking.OverlapRatio != 0.25 {
		t.Fatalf("overlap ratio override not applied: %v", cfg.ScotusChunking.OverlapRatio)
	}
	if cfg.MCP.DefaultLimit != 5 {
		t.Fatalf("mcp limit override not applied: %d", cfg.MCP.DefaultLimit)
	}
}

func TestLoad_RejectsInvalidChunking(t *testing.T) {
	t.Setenv("RAG_SCOTUS_MIN_TOKENS", "900")
	t.Setenv("RAG_SCOTUS_MAX_TOKENS", "800")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error for min_tokens > max_tokens")
	}
}
