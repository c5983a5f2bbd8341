// Package chunking implements L3: deterministic, structure-aware
// segmentation of legal prose into section-labeled, token-bounded chunks.
package chunking

import (
	"regexp"
	"strings"

	"governmentreporter/internal/tokencount"
)

// Chunk is one emitted span of text plus its structural label.
type Chunk struct {
	Text         string
	SectionLabel string
	TokenCount   int
}

var blankRunRe = regexp.MustCompile(`\n\s*\n+`)

// NormalizeWhitespace trims the text and collapses runs of blank lines into
// a single paragraph break, preserving single paragraph breaks.
func NormalizeWhitespace(text string) string {
	text = strings.TrimSpace(text)
	return blankRunRe.ReplaceAllString(text, "\n\n")
}

// sentenceBoundary finds the last occurrence of a sentence terminator
// (". ", "? ", "! ") within the last 20% of window, returning the index
// just after it, or -1 if none is found.
func sentenceBoundary(window string) int {
	tailStart := len(window) - len(window)/5
	if tailStart < 0 {
		tailStart = 0
	}
	tail := window[tailStart:]
	best := -1
	for _, term := range []string{". ", "? ", "! "} {
		if idx := strings.LastIndex(tail, term); idx != -1 {
			abs := tailStart + idx + len(term)
			if abs > best {
				best = abs
			}
		}
	}
	return best
}

// ChunkTextWithTokens implements the central sliding-window chunker shared
// by both document types. overlap and max/min/target are expressed in
// tokens; the window itself is walked in characters using a 4-chars/token
// approximation, with count_tokens called only at emit time (the
// distillation's own documented-intentional approximation).
func ChunkTextWithTokens(counter tokencount.Counter, text, sectionLabel string, minTokens, targetTokens, maxTokens, overlapTokens int) []Chunk {
	if overlapTokens >= targetTokens {
		overlapTokens = targetTokens - 1
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}

	text = NormalizeWhitespace(text)
	if text == "" {
		return nil
	}

	boundTokens := targetTokens
	if minTokens > boundTokens {
		boundTokens = minTokens
	}
	if counter.Count(text) <= boundTokens {
		return []Chunk{{Text: text, SectionLabel: sectionLabel, TokenCount: counter.Count(text)}}
	}

	const charsPerToken = 4
	window := targetTokens * charsPerToken
	step := (targetTokens - overlapTokens) * charsPerToken
	if step <= 0 {
		step = charsPerToken
	}
	overlapChars := overlapTokens * charsPerToken

	var chunks []Chunk
	start := 0
	n := len(text)
	for start < n {
		end := start + window
		atEOF := end >= n
		if atEOF {
			end = n
		} else if boundary := sentenceBoundary(text[start:end]); boundary != -1 {
			end = start + boundary
		}
		if end <= start {
			end = start + 1
		}
		chunkText := strings.TrimSpace(text[start:end])
		if chunkText != "" {
			chunks = append(chunks, Chunk{
				Text:         chunkText,
				SectionLabel: sectionLabel,
				TokenCount:   counter.Count(chunkText),
			})
		}

		if end >= n {
			break
		}

		tail := strings.TrimSpace(text[end:])
		tailTokens := counter.Count(tail)
		if tail != "" && tailTokens < minTokens && len(chunks) > 0 {
			softCap := int(float64(maxTokens) * 1.2)
			last := &chunks[len(chunks)-1]
			merged := strings.TrimSpace(last.Text + " " + tail)
			mergedTokens := counter.Count(merged)
			if mergedTokens <= softCap {
				last.Text = merged
				last.TokenCount = mergedTokens
				break
			}
		}

		next := start + step
		if next < end-overlapChars {
			next = end - overlapChars
		}
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}
