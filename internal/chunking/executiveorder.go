package chunking

import (
	"regexp"
	"strconv"
	"strings"

	"governmentreporter/internal/config"
	"governmentreporter/internal/tokencount"
)

var (
	eoSectionRe    = regexp.MustCompile(`(?mi)^\s*(Sec(?:tion)?\.?\s*\d+[A-Za-z-]*\.)`)
	eoSectionNumRe = regexp.MustCompile(`\d+[A-Za-z-]*`)
	eoTitleRe      = regexp.MustCompile(`(?i)^Sec(?:tion)?\.?\s*\d+[A-Za-z-]*\.\s*([^.]+)\.`)
	eoSubsectionRe = regexp.MustCompile(`(?m)^\s*\([a-z]\)\s*`)
	eoSubparaRe    = regexp.MustCompile(`(?m)^\s*\((?:i|ii|iii|iv|v|vi|vii|viii|ix|x)+\)\s*`)
	eoLetterRe     = regexp.MustCompile(`\(([a-z])\)`)
)

// ChunkExecutiveOrder segments an Executive Order into a Preamble chunk set
// (everything preceding the first "Sec." header) plus one independently
// chunked set per numbered section, further split on lettered subsections
// and roman-numeral subparagraphs. Overlap is never applied across a
// section boundary — each section, subsection, and preamble is chunked on
// its own sliding window so legal cross-references never straddle two
// section labels.
func ChunkExecutiveOrder(counter tokencount.Counter, cfg config.ChunkingConfig, text string) []Chunk {
	overlap := cfg.OverlapTokens()

	matches := eoSectionRe.FindAllStringSubmatchIndex(text, -1)

	var chunks []Chunk

	if len(matches) > 0 {
		preamble := strings.TrimSpace(text[:matches[0][0]])
		if preamble != "" {
			chunks = append(chunks, ChunkTextWithTokens(counter, preamble, "Preamble", cfg.MinTokens, cfg.TargetTokens, cfg.MaxTokens, overlap)...)
		}
	}

	for i, m := range matches {
		sectionStart := m[0]
		sectionEnd := len(text)
		if i+1 < len(matches) {
			sectionEnd = matches[i+1][0]
		}
		sectionHeader := text[m[2]:m[3]]
		sectionText := strings.TrimSpace(text[sectionStart:sectionEnd])

		sectionNum := eoSectionNumRe.FindString(sectionHeader)
		if sectionNum == "" {
			sectionNum = strconv.Itoa(i + 1)
		}

		label := "Sec. " + sectionNum
		if tm := eoTitleRe.FindStringSubmatch(sectionText); tm != nil {
			title := strings.TrimSpace(tm[1])
			if title != "" {
				label = label + " - " + title
			}
		}

		chunks = append(chunks, chunkEOSection(counter, cfg, sectionText, label, overlap)...)
	}

	if len(chunks) == 0 {
		chunks = ChunkTextWithTokens(counter, text, "Executive Order", cfg.MinTokens, cfg.TargetTokens, cfg.MaxTokens, overlap)
	}

	return chunks
}

func chunkEOSection(counter tokencount.Counter, cfg config.ChunkingConfig, sectionText, label string, overlap int) []Chunk {
	subsections := eoSubsectionRe.FindAllStringIndex(sectionText, -1)
	if len(subsections) <= 1 {
		return ChunkTextWithTokens(counter, sectionText, label, cfg.MinTokens, cfg.TargetTokens, cfg.MaxTokens, overlap)
	}

	var chunks []Chunk
	for j, sub := range subsections {
		subEnd := len(sectionText)
		if j+1 < len(subsections) {
			subEnd = subsections[j+1][0]
		}
		subText := strings.TrimSpace(sectionText[sub[0]:subEnd])

		letter := ""
		if lm := eoLetterRe.FindStringSubmatch(sectionText[sub[0]:sub[1]]); lm != nil {
			letter = lm[1]
		}
		subLabel := label + "(" + letter + ")"

		subparas := eoSubparaRe.FindAllStringIndex(subText, -1)
		if len(subparas) > 1 {
			for k, para := range subparas {
				paraEnd := len(subText)
				if k+1 < len(subparas) {
					paraEnd = subparas[k+1][0]
				}
				paraText := strings.TrimSpace(subText[para[0]:paraEnd])
				chunks = append(chunks, ChunkTextWithTokens(counter, paraText, subLabel, cfg.MinTokens, cfg.TargetTokens, cfg.MaxTokens, overlap)...)
			}
		} else {
			chunks = append(chunks, ChunkTextWithTokens(counter, subText, subLabel, cfg.MinTokens, cfg.TargetTokens, cfg.MaxTokens, overlap)...)
		}
	}
	return chunks
}
