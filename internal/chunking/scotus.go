package chunking

import (
	"regexp"
	"strings"

	"governmentreporter/internal/config"
	"governmentreporter/internal/tokencount"
)

var (
	syllabusRe = regexp.MustCompile(`(?mi)^\s*SYLLABUS\s*$`)
	majorityRe = regexp.MustCompile(`(?mi)^\s*(?:(?:Per Curiam\.)|(?:JUSTICE\s+[A-Z][A-Za-z-]+\s+delivered the opinion of the Court\.?)|(?:Opinion of the Court))`)
	concurRe   = regexp.MustCompile(`(?mi)^\s*JUSTICE\s+[A-Z][A-Za-z-]+,\s+(?:with whom.*?joins?,\s+)?concurring`)
	dissentRe  = regexp.MustCompile(`(?mi)^\s*JUSTICE\s+[A-Z][A-Za-z-]+,\s+(?:with whom.*?joins?,\s+)?dissenting`)
	concurDissentRe = regexp.MustCompile(`(?mi)^\s*JUSTICE\s+[A-Z][A-Za-z-]+,\s+(?:with whom.*?joins?,\s+)?concurring in part and dissenting in part`)

	scotusSubsectionRe = regexp.MustCompile(`(?m)^\s{20,}(?:[IVX]+|[A-Z]|\d+)\s*$`)
)

type scotusSection struct {
	label string
	start int
}

// ChunkSupremeCourtOpinion segments a Supreme Court opinion into
// section-labeled chunks (Syllabus, Majority Opinion, Concurring Opinion,
// Dissenting Opinion, Concurring in Part Dissenting in Part), further
// splitting each section on Level-1 Roman-numeral/letter/number subsections
// where the reporter's formatting convention indents them 20+ spaces. It
// returns the chunks plus the Syllabus body text alone (the Syllabus header
// line stripped), for separate downstream LLM summarization.
func ChunkSupremeCourtOpinion(counter tokencount.Counter, cfg config.ChunkingConfig, text string) ([]Chunk, string) {
	overlap := cfg.OverlapTokens()

	var sections []scotusSection
	if m := syllabusRe.FindStringIndex(text); m != nil {
		sections = append(sections, scotusSection{"Syllabus", m[0]})
	}
	if m := majorityRe.FindStringIndex(text); m != nil {
		sections = append(sections, scotusSection{"Majority Opinion", m[0]})
	}
	for _, m := range concurRe.FindAllStringIndex(text, -1) {
		sections = append(sections, scotusSection{"Concurring Opinion", m[0]})
	}
	for _, m := range dissentRe.FindAllStringIndex(text, -1) {
		sections = append(sections, scotusSection{"Dissenting Opinion", m[0]})
	}
	for _, m := range concurDissentRe.FindAllStringIndex(text, -1) {
		sections = append(sections, scotusSection{"Concurring in Part, Dissenting in Part", m[0]})
	}

	sortSections(sections)

	if len(sections) == 0 {
		return ChunkTextWithTokens(counter, text, "Opinion", cfg.MinTokens, cfg.TargetTokens, cfg.MaxTokens, overlap), ""
	}

	var chunks []Chunk
	var syllabus string

	for i, s := range sections {
		end := len(text)
		if i+1 < len(sections) {
			end = sections[i+1].start
		}
		sectionText := strings.TrimSpace(text[s.start:end])

		if s.label == "Syllabus" {
			lines := strings.SplitN(sectionText, "\n", 2)
			if len(lines) == 2 {
				syllabus = strings.TrimSpace(lines[1])
			}
		}

		subsections := scotusSubsectionRe.FindAllStringIndex(sectionText, -1)
		if len(subsections) > 1 {
			for j, sub := range subsections {
				subEnd := len(sectionText)
				if j+1 < len(subsections) {
					subEnd = subsections[j+1][0]
				}
				subText := strings.TrimSpace(sectionText[sub[0]:subEnd])
				marker := strings.TrimSpace(sectionText[sub[0]:sub[1]])
				label := s.label + " - Part " + marker
				chunks = append(chunks, ChunkTextWithTokens(counter, subText, label, cfg.MinTokens, cfg.TargetTokens, cfg.MaxTokens, overlap)...)
			}
		} else {
			chunks = append(chunks, ChunkTextWithTokens(counter, sectionText, s.label, cfg.MinTokens, cfg.TargetTokens, cfg.MaxTokens, overlap)...)
		}
	}

	return chunks, syllabus
}

func sortSections(s []scotusSection) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].start < s[j-1].start; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
