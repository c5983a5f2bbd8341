package chunking

import (
	"strings"
	"testing"

	"governmentreporter/internal/config"
	"governmentreporter/internal/tokencount"
)

func TestChunkSupremeCourtOpinion_SyllabusAndMajority(t *testing.T) {
	counter := tokencount.Fallback()

	text := "SYLLABUS\n" + strings.Repeat("The Court held that the statute applies broadly. ", 5) +
		"\n\nJUSTICE ROBERTS delivered the opinion of the Court.\n" +
		strings.Repeat("This case concerns the scope of the statute. ", 5) +
		"\n\nJUSTICE THOMAS, concurring.\n" +
		strings.Repeat("I agree with the Court but write separately. ", 5) +
		"\n\nJUSTICE SOTOMAYOR, dissenting.\n" +
		strings.Repeat("I would hold otherwise. ", 5)

	chunks, syllabus := ChunkSupremeCourtOpinion(counter, config.DefaultScotusChunking(), text)

	if syllabus == "" {
		t.Fatalf("expected non-empty syllabus extraction")
	}
	if strings.Contains(syllabus, "SYLLABUS") {
		t.Fatalf("syllabus body should not include its header line")
	}

	var labels []string
	for _, c := range chunks {
		labels = append(labels, c.SectionLabel)
	}
	wantLabels := []string{"Syllabus", "Majority Opinion", "Concurring Opinion", "Dissenting Opinion"}
	for _, want := range wantLabels {
		found := false
		for _, l := range labels {
			if l == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected a chunk labeled %q, got labels %v", want, labels)
		}
	}
}

func TestChunkSupremeCourtOpinion_NoSectionMarkersFallsBackToSingleSection(t *testing.T) {
	counter := tokencount.Fallback()
	text := strings.Repeat("Plain unstructured opinion text without markers. ", 20)

	chunks, syllabus := ChunkSupremeCourtOpinion(counter, config.DefaultScotusChunking(), text)

	if syllabus != "" {
		t.Fatalf("expected no syllabus when no section markers present")
	}
	for _, c := range chunks {
		if c.SectionLabel != "Opinion" {
			t.Fatalf("expected all chunks labeled Opinion, got %q", c.SectionLabel)
		}
	}
}

func TestChunkSupremeCourtOpinion_SubsectionsCreatePartLabels(t *testing.T) {
	counter := tokencount.Fallback()
	pad := strings.Repeat(" ", 22)
	text := "JUSTICE ROBERTS delivered the opinion of the Court.\n" +
		strings.Repeat("Intro text before any subsection marker appears here. ", 3) +
		"\n" + pad + "I\n" +
		strings.Repeat("First subsection discussion of the statutory text. ", 5) +
		"\n" + pad + "II\n" +
		strings.Repeat("Second subsection discussion of remedies available. ", 5)

	chunks, _ := ChunkSupremeCourtOpinion(counter, config.DefaultScotusChunking(), text)

	foundPart := false
	for _, c := range chunks {
		if strings.Contains(c.SectionLabel, "Part I") || strings.Contains(c.SectionLabel, "Part II") {
			foundPart = true
		}
	}
	if !foundPart {
		t.Fatalf("expected subsection labels with 'Part I'/'Part II', got chunks: %+v", chunks)
	}
}
