package govapi

import (
	"encoding/json"
	"testing"
)

func TestOpinionSummary_ToDocument(t *testing.T) {
	op := OpinionSummary{
		ID:          12345,
		DateCreated: "2024-05-16T00:00:00Z",
		Type:        "020lead",
		PlainText:   "The judgment is affirmed.",
		DownloadURL: "https://example.com/opinion.pdf",
	}
	cl := Cluster{
		CaseName:  "Example v. United States",
		DateFiled: "2024-05-16",
		Citations: []ClusterCitation{{Type: 1, Volume: 601, Reporter: "U.S.", Page: "416"}},
	}

	doc := op.ToDocument(cl)

	if doc.ID != "12345" {
		t.Fatalf("expected ID 12345, got %q", doc.ID)
	}
	if doc.Title != "Example v. United States" {
		t.Fatalf("expected case name as title, got %q", doc.Title)
	}
	if doc.Date != "2024-05-16" {
		t.Fatalf("expected normalized date, got %q", doc.Date)
	}
	if doc.Source != "CourtListener" {
		t.Fatalf("expected source CourtListener, got %q", doc.Source)
	}
	if doc.Metadata["bluebook_citation"] != "601 U.S. 416 (2024)" {
		t.Fatalf("expected bluebook citation in metadata, got %v", doc.Metadata["bluebook_citation"])
	}
}

func TestExecutiveOrderSummary_ToDocument(t *testing.T) {
	presJSON, _ := json.Marshal(map[string]string{"name": "Jane Doe"})
	eo := ExecutiveOrderSummary{
		DocumentNumber:       "2025-12345",
		Title:                "Example Executive Order",
		ExecutiveOrderNumber: 14304,
		SigningDate:          "2025-01-15",
		President:            presJSON,
		Citation:             "90 FR 1000",
		HTMLURL:              "https://example.com/eo",
	}

	doc := eo.ToDocument("Section 1. Purpose. This order establishes a policy.")

	if doc.ID != "2025-12345" {
		t.Fatalf("expected document number as ID, got %q", doc.ID)
	}
	if doc.Type != "Executive Order" {
		t.Fatalf("expected type Executive Order, got %q", doc.Type)
	}
	if doc.Metadata["president"] != "Jane Doe" {
		t.Fatalf("expected president extracted from JSON, got %v", doc.Metadata["president"])
	}
	if doc.Content == "" {
		t.Fatalf("expected non-empty content")
	}
}

func TestExecutiveOrderSummary_ToDocument_FallsBackToAbstractWhenNoRawText(t *testing.T) {
	eo := ExecutiveOrderSummary{DocumentNumber: "2025-1", Abstract: "A short summary."}
	doc := eo.ToDocument("")
	if doc.Content != "A short summary." {
		t.Fatalf("expected abstract fallback, got %q", doc.Content)
	}
}
