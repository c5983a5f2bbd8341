package queryformat

import (
	"strings"
	"testing"

	"governmentreporter/internal/govapi"
)

func TestFormatSearchResults_NoHits(t *testing.T) {
	f, err := New(1000)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got := f.FormatSearchResults("abortion", nil)
	if !strings.Contains(got, "No results found") {
		t.Fatalf("expected no-results message, got %q", got)
	}
}

func TestFormatScotusResults_DetailedMetadata(t *testing.T) {
	f, _ := New(1000)
	hits := []Hit{{
		Type:  "scotus",
		Score: 0.92,
		Payload: map[string]any{
			"case_name":     "Dobbs v. Jackson",
			"opinion_type":  "majority",
			"justice":       "Alito",
			"text":          "the Constitution does not confer a right to abortion",
			"legal_topics":  []any{"Constitutional Law", "Abortion"},
			"vote_breakdown": "6-3",
			"document_id":   "dobbs123",
		},
	}}
	got := f.FormatScotusResults("abortion rights", hits)
	if !strings.Contains(got, "Dobbs v. Jackson") {
		t.Fatalf("expected case name in output, got %q", got)
	}
	if !strings.Contains(got, "Majority Opinion") {
		t.Fatalf("expected opinion type header, got %q", got)
	}
	if !strings.Contains(got, "Vote:** 6-3") {
		t.Fatalf("expected vote breakdown, got %q", got)
	}
	if !strings.Contains(got, "Full Document Access") {
		t.Fatalf("expected full-document hint for a single high-score hit, got %q", got)
	}
}

func TestFormatSearchResults_TruncatesLongExcerpt(t *testing.T) {
	f, _ := New(10)
	hits := []Hit{{Type: "scotus", Score: 0.5, Payload: map[string]any{"case_name": "X", "text": "0123456789ABCDEF"}}}
	got := f.FormatSearchResults("q", hits)
	if !strings.Contains(got, "0123456789...") {
		t.Fatalf("expected truncated excerpt, got %q", got)
	}
}

func TestGenerateFullDocumentHint_SuppressedForManyResults(t *testing.T) {
	f, _ := New(1000)
	hits := make([]Hit, 5)
	for i := range hits {
		hits[i] = Hit{Type: "scotus", Score: 0.9, Payload: map[string]any{"case_name": "X", "document_id": "doc"}}
	}
	got := f.generateFullDocumentHint(hits, 3, 0.4)
	if got != "" {
		t.Fatalf("expected no hint beyond max_results, got %q", got)
	}
}

func TestGenerateFullDocumentHint_SuppressedForLowScore(t *testing.T) {
	f, _ := New(1000)
	hits := []Hit{{Type: "scotus", Score: 0.1, Payload: map[string]any{"case_name": "X", "document_id": "doc"}}}
	got := f.generateFullDocumentHint(hits, 3, 0.4)
	if got != "" {
		t.Fatalf("expected no hint below min_score, got %q", got)
	}
}

func TestFormatFullDocument_ScotusMergesMetadata(t *testing.T) {
	f, _ := New(1000)
	doc := govapi.Document{
		Title:   "Dobbs v. Jackson",
		Date:    "2022-06-24",
		Content: "full opinion text here",
		Metadata: map[string]any{
			"justice": "Alito",
		},
	}
	got := f.FormatFullDocument("scotus", doc, map[string]any{"opinion_type": "majority"})
	if !strings.Contains(got, "full opinion text here") {
		t.Fatalf("expected full content, got %q", got)
	}
	if !strings.Contains(got, "Majority Opinion") {
		t.Fatalf("expected opinion type from chunk metadata, got %q", got)
	}
	if !strings.Contains(got, "by Alito") {
		t.Fatalf("expected justice from document metadata, got %q", got)
	}
}

func TestFormatCollectionsList_ReportsError(t *testing.T) {
	f, _ := New(1000)
	got := f.FormatCollectionsList([]CollectionSummary{{Name: "supreme_court_opinions", Err: errTest}})
	if !strings.Contains(got, "Error retrieving collection info") {
		t.Fatalf("expected error line, got %q", got)
	}
}

var errTest = &testErr{"boom"}

type testErr struct{ msg string }

func (e *testErr) Error() string { return e.msg }
