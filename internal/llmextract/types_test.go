package llmextract

import "testing"

func TestPadEOTopics_AddsGenericTopicsUntilFive(t *testing.T) {
	got := padEOTopics([]string{"clean energy", "electric vehicles"})
	if len(got) != 5 {
		t.Fatalf("expected 5 topics, got %d: %v", len(got), got)
	}
}

func TestPadEOTopics_LeavesFiveOrMoreUntouchedUpToEight(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e", "f"}
	got := padEOTopics(in)
	if len(got) != 6 {
		t.Fatalf("expected unchanged 6 topics, got %d", len(got))
	}
}

func TestPadEOTopics_ClampsAboveEight(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	got := padEOTopics(in)
	if len(got) != 8 {
		t.Fatalf("expected clamp to 8, got %d", len(got))
	}
}

func TestFallbackFields_AreValidNonEmpty(t *testing.T) {
	s := fallbackScotusFields()
	if s.HoldingPlain == "" || s.PlainLanguageSummary == "" {
		t.Fatalf("expected non-empty fallback fields")
	}
	eo := fallbackEOFields()
	if eo.PlainLanguageSummary == "" || len(eo.TopicsOrPolicyAreas) == 0 {
		t.Fatalf("expected non-empty EO fallback fields")
	}
}
