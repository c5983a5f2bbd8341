package tokencount

import "testing"

func TestFallback_ApproximatesCharsDiv4(t *testing.T) {
	c := Fallback()
	text := "abcdefgh" // 8 chars
	if got := c.Count(text); got != 2 {
		t.Fatalf("expected 2 tokens, got %d", got)
	}
}

func TestFallback_EmptyText(t *testing.T) {
	if got := Fallback().Count(""); got != 0 {
		t.Fatalf("expected 0 tokens for empty text, got %d", got)
	}
}
