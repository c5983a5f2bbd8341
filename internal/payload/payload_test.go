package payload

import (
	"context"
	"testing"

	"governmentreporter/internal/config"
	"governmentreporter/internal/govapi"
	"governmentreporter/internal/llmextract"
	"governmentreporter/internal/tokencount"
)

func newTestBuilder() *Builder {
	return NewBuilder(
		tokencount.Fallback(),
		llmextract.New("test-key", ""),
		config.DefaultScotusChunking(),
		config.DefaultEOChunking(),
	)
}

func TestBuildFromDocument_RejectsEmptyContent(t *testing.T) {
	b := newTestBuilder()
	_, err := b.BuildFromDocument(context.Background(), govapi.Document{ID: "x", Type: "Supreme Court Opinion", Source: "CourtListener"})
	if err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestBuildFromDocument_RejectsUnknownType(t *testing.T) {
	b := newTestBuilder()
	doc := govapi.Document{ID: "x", Type: "Press Release", Source: "WhiteHouse", Content: "some text"}
	_, err := b.BuildFromDocument(context.Background(), doc)
	if err == nil {
		t.Fatal("expected error for unrecognized type/source")
	}
}

func TestIsScotus_DetectsByTypeAndSource(t *testing.T) {
	if !isScotus(govapi.Document{Type: "Supreme Court Opinion"}) {
		t.Fatal("expected scotus by type")
	}
	if !isScotus(govapi.Document{Source: "CourtListener"}) {
		t.Fatal("expected scotus by source")
	}
	if isScotus(govapi.Document{Type: "Executive Order", Source: "Federal Register"}) {
		t.Fatal("expected EO not classified as scotus")
	}
}

func TestIsEO_DetectsByTypeAndSource(t *testing.T) {
	if !isEO(govapi.Document{Type: "Executive Order"}) {
		t.Fatal("expected EO by type")
	}
	if !isEO(govapi.Document{Source: "Federal Register"}) {
		t.Fatal("expected EO by source")
	}
}

func TestNormalizeScotusMetadata_PrefersCaseNameAndMapsOpinionType(t *testing.T) {
	doc := govapi.Document{
		ID:     "op1",
		Title:  "fallback title",
		Date:   "2024-05-16",
		Type:   "scotus_opinion",
		Source: "courtlistener",
		Metadata: map[string]any{
			"case_name": "Sample v. Test",
			"type":      "030concurrence",
		},
	}
	meta := normalizeScotusMetadata(doc)
	if meta["title"] != "Sample v. Test" {
		t.Fatalf("expected case_name to win over title, got %v", meta["title"])
	}
	if meta["opinion_type"] != "concurrence" {
		t.Fatalf("expected mapped opinion_type, got %v", meta["opinion_type"])
	}
	if meta["source"] != "CourtListener" {
		t.Fatalf("expected normalized source, got %v", meta["source"])
	}
	if meta["type"] != "Supreme Court Opinion" {
		t.Fatalf("expected normalized type, got %v", meta["type"])
	}
	if meta["year"] != 2024 {
		t.Fatalf("expected year 2024, got %v", meta["year"])
	}
}

func TestNormalizeEOMetadata_ExtractsPresidentNameFromObjectOrString(t *testing.T) {
	doc := govapi.Document{
		ID:     "eo1",
		Title:  "Test EO",
		Date:   "2025-06-11",
		Type:   "executive_order",
		Source: "federal_register",
		Metadata: map[string]any{
			"presidential_document_number": "99999",
			"president":                    map[string]any{"name": "Jane Doe"},
		},
	}
	meta := normalizeEOMetadata(doc)
	if meta["president"] != "Jane Doe" {
		t.Fatalf("expected extracted president name, got %v", meta["president"])
	}
	if meta["eo_number"] != "99999" {
		t.Fatalf("expected eo_number from presidential_document_number fallback, got %v", meta["eo_number"])
	}
	if meta["source"] != "Federal Register" || meta["type"] != "Executive Order" {
		t.Fatalf("expected normalized source/type, got %v / %v", meta["source"], meta["type"])
	}
}

func TestBuildFromDocument_ScotusProducesChunksWithCombinedMetadata(t *testing.T) {
	b := newTestBuilder()
	content := `
SYLLABUS

Held: The Constitution requires a warrant for digital searches.

JUSTICE ROBERTS delivered the opinion of the Court.

The Fourth Amendment protects against unreasonable searches. Digital
devices contain vast amounts of personal information. We hold that a
warrant is generally required in this context, subject to exceptions
not present here.
`
	doc := govapi.Document{
		ID:       "test_scotus_001",
		Title:    "Sample v. Test Case",
		Date:     "2024-05-16",
		Type:     "Supreme Court Opinion",
		Source:   "CourtListener",
		Content:  content,
		Metadata: map[string]any{"case_name": "Sample v. Test Case"},
		URL:      "https://example.com/opinion",
	}

	chunks, err := b.BuildFromDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	first := chunks[0]
	if first.ID != "test_scotus_001_chunk_0" {
		t.Fatalf("expected chunk ID with _chunk_0 suffix, got %q", first.ID)
	}
	if first.Metadata["document_id"] != "test_scotus_001" {
		t.Fatalf("expected document_id in combined metadata")
	}
	if _, ok := first.Metadata["plain_language_summary"]; !ok {
		t.Fatal("expected LLM field present (fallback) in combined metadata")
	}
	if _, ok := first.Metadata["section_label"]; !ok {
		t.Fatal("expected section_label in combined metadata")
	}
}

func TestBuildFromDocument_EOProducesChunksWithCombinedMetadata(t *testing.T) {
	b := newTestBuilder()
	content := `
Executive Order 99999

By the authority vested in me as President, I hereby order:

Section 1. Purpose. This order establishes test requirements for
demonstration purposes across the relevant agencies.

Sec. 2. Policy. All agencies shall implement test policies consistent
with this order within a reasonable time.
`
	doc := govapi.Document{
		ID:       "test_eo_001",
		Title:    "Test Executive Order",
		Date:     "2025-06-11",
		Type:     "Executive Order",
		Source:   "Federal Register",
		Content:  content,
		Metadata: map[string]any{"presidential_document_number": "99999"},
		URL:      "https://example.com/eo",
	}

	chunks, err := b.BuildFromDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for _, c := range chunks {
		if c.Metadata["eo_number"] != "99999" {
			t.Fatalf("expected eo_number propagated to every chunk, got %v", c.Metadata["eo_number"])
		}
	}
}
