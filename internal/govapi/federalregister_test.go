package govapi

import "testing"

func TestHTMLStrippingRegexes_ExtractPreBodyAndDropAnchors(t *testing.T) {
	raw := "<html><body><pre>Section 1. Purpose. See <a href=\"x\">44 U.S.C. 1505</a> &amp; related law.</pre></body></html>"

	m := preTagRe.FindStringSubmatch(raw)
	if m == nil {
		t.Fatalf("expected <pre> match")
	}
	cleaned := anchorTagRe.ReplaceAllString(m[1], "")

	if got, want := cleaned, "Section 1. Purpose. See  &amp; related law."; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestListExecutiveOrders_RejectsInvalidDateFormat(t *testing.T) {
	c := &FederalRegisterClient{}
	if _, err := c.ListExecutiveOrders(nil, "01-01-2024", "2024-12-31", 0); err == nil {
		t.Fatalf("expected error for invalid start_date")
	}
	if _, err := c.ListExecutiveOrders(nil, "2024-01-01", "bad-date", 0); err == nil {
		t.Fatalf("expected error for invalid end_date")
	}
}
