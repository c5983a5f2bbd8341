package chunking

import (
	"strings"
	"testing"

	"governmentreporter/internal/tokencount"
)

func TestChunkTextWithTokens_ShortTextYieldsSingleChunk(t *testing.T) {
	counter := tokencount.Fallback()
	text := "A short passage that fits in one chunk."
	chunks := ChunkTextWithTokens(counter, text, "Body", 10, 100, 200, 20)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Fatalf("expected chunk text unchanged, got %q", chunks[0].Text)
	}
}

func TestChunkTextWithTokens_LongTextSplitsIntoMultipleChunks(t *testing.T) {
	counter := tokencount.Fallback()
	text := strings.Repeat("This sentence is part of a much longer passage of legal prose. ", 200)
	chunks := ChunkTextWithTokens(counter, text, "Body", 50, 100, 150, 15)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for long text, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.SectionLabel != "Body" {
			t.Fatalf("expected section label propagated, got %q", c.SectionLabel)
		}
		if c.Text == "" {
			t.Fatalf("expected no empty chunk text")
		}
	}
}

func TestChunkTextWithTokens_EmptyTextYieldsNoChunks(t *testing.T) {
	counter := tokencount.Fallback()
	if chunks := ChunkTextWithTokens(counter, "   ", "Body", 10, 100, 200, 20); len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank input, got %d", len(chunks))
	}
}

func TestNormalizeWhitespace_CollapsesBlankLineRuns(t *testing.T) {
	in := "Para one.\n\n\n\nPara two.\n"
	got := NormalizeWhitespace(in)
	if got != "Para one.\n\nPara two." {
		t.Fatalf("unexpected normalization: %q", got)
	}
}
