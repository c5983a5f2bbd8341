// Package queryformat turns raw vector-store hits into the markdown the MCP
// tools hand back to an LLM: numbered, truncated excerpts with type-specific
// legal or policy context blocks, plus a "load the full document" nudge when
// a search is focused enough that it would help.
package queryformat

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"governmentreporter/internal/errs"
	"governmentreporter/internal/govapi"
)

// Hit is one scored vector-store result plus the document-type label the
// caller resolved it under ("scotus" or "executive_order"); Payload carries
// the chunk text under "text" alongside the rest of its stored metadata.
type Hit struct {
	Type    string
	Score   float64
	Payload map[string]any
}

// CollectionSummary is the per-collection detail list_collections reports.
type CollectionSummary struct {
	Name           string
	VectorCount    uint64
	PointsCount    uint64
	SampleMetadata map[string]any
	Err            error
}

// Formatter renders Hits as markdown, truncating excerpt text past
// MaxChunkLength characters.
type Formatter struct {
	MaxChunkLength int
}

// New builds a Formatter with the given excerpt truncation length.
func New(maxChunkLength int) (*Formatter, error) {
	if maxChunkLength <= 0 {
		return nil, errs.New(errs.KindDomainViolation, fmt.Errorf("max chunk length must be greater than 0"))
	}
	return &Formatter{MaxChunkLength: maxChunkLength}, nil
}

// FormatTimestampToDate renders a Unix-seconds timestamp as "January 2,
// 2006"; a nil timestamp renders as "".
func FormatTimestampToDate(timestamp *int64) string {
	if timestamp == nil {
		return ""
	}
	return time.Unix(*timestamp, 0).UTC().Format("January 2, 2006")
}

// FormatSearchResults renders the general, cross-collection search tool's
// response: every hit routed to its type-specific chunk formatter by Type,
// falling back to payload sniffing and then a generic formatter.
func (f *Formatter) FormatSearchResults(query string, hits []Hit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var out []string
	out = append(out, fmt.Sprintf("## Search Results for: %q\n", query))
	out = append(out, fmt.Sprintf("Found %d relevant document chunks.\n", len(hits)))

	for i, hit := range hits {
		docType := hit.Type
		if docType == "" {
			docType = sniffType(hit.Payload)
		}
		switch docType {
		case "scotus":
			out = append(out, f.formatScotusChunk(i+1, hit.Payload, hit.Score, false))
		case "executive_order":
			out = append(out, f.formatEOChunk(i+1, hit.Payload, hit.Score, false))
		default:
			out = append(out, f.formatGenericChunk(i+1, hit.Payload, hit.Score))
		}
		out = append(out, "")
	}

	if hint := f.generateFullDocumentHint(hits, 3, 0.4); hint != "" {
		out = append(out, hint)
	}
	return strings.Join(out, "\n")
}

// FormatScotusResults renders the SCOTUS-specific search tool's response
// with detailed legal-context blocks.
func (f *Formatter) FormatScotusResults(query string, hits []Hit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No Supreme Court opinions found for query: %q", query)
	}

	var out []string
	out = append(out, "## Supreme Court Opinion Search Results\n")
	out = append(out, fmt.Sprintf("Query: %q", query))
	out = append(out, fmt.Sprintf("Found %d relevant opinion chunks.\n", len(hits)))

	for i, hit := range hits {
		out = append(out, f.formatScotusChunk(i+1, hit.Payload, hit.Score, true))
		out = append(out, "")
	}

	if hint := f.generateFullDocumentHint(hits, 3, 0.4); hint != "" {
		out = append(out, hint)
	}
	return strings.Join(out, "\n")
}

// FormatEOResults renders the Executive Order-specific search tool's
// response with detailed policy-context blocks.
func (f *Formatter) FormatEOResults(query string, hits []Hit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No Executive Orders found for query: %q", query)
	}

	var out []string
	out = append(out, "## Executive Order Search Results\n")
	out = append(out, fmt.Sprintf("Query: %q", query))
	out = append(out, fmt.Sprintf("Found %d relevant order chunks.\n", len(hits)))

	for i, hit := range hits {
		out = append(out, f.formatEOChunk(i+1, hit.Payload, hit.Score, true))
		out = append(out, "")
	}

	if hint := f.generateFullDocumentHint(hits, 3, 0.4); hint != "" {
		out = append(out, hint)
	}
	return strings.Join(out, "\n")
}

// FormatDocumentChunk renders a single stored chunk (the get_document_by_id
// response when full_document wasn't requested, or couldn't be resolved).
func (f *Formatter) FormatDocumentChunk(collection, documentID string, payload map[string]any) string {
	var out []string
	out = append(out, "## Document Retrieved\n")
	out = append(out, fmt.Sprintf("**Collection:** %s", collection))
	out = append(out, fmt.Sprintf("**Document ID:** %s\n", documentID))

	switch collection {
	case "supreme_court_opinions":
		out = append(out, fmt.Sprintf("### %s", stringOr(payload, "case_name", "Unknown Case")))
	case "executive_orders":
		out = append(out, fmt.Sprintf("### %s", stringOr(payload, "title", "Unknown Order")))
		if eoNumber := stringOr(payload, "executive_order_number", ""); eoNumber != "" {
			out = append(out, fmt.Sprintf("**EO Number:** %s", eoNumber))
		}
	}

	out = append(out, "\n### Document Content:")
	out = append(out, chunkText(payload))

	out = append(out, "\n### Metadata:")
	for key, value := range f.extractRelevantMetadata(collection, payload) {
		out = append(out, fmt.Sprintf("- **%s:** %s", key, value))
	}

	return strings.Join(out, "\n")
}

// FormatFullDocument renders the complete document retrieved from the
// upstream government API when get_document_by_id is called with
// full_document=true, merging in whatever context the original chunk's
// metadata still carries (e.g. its opinion_type or section label).
func (f *Formatter) FormatFullDocument(docType string, doc govapi.Document, chunkMetadata map[string]any) string {
	metadata := make(map[string]any, len(chunkMetadata)+len(doc.Metadata))
	for k, v := range chunkMetadata {
		metadata[k] = v
	}
	for k, v := range doc.Metadata {
		metadata[k] = v
	}

	var out []string
	out = append(out, "## Full Document Retrieved\n")

	switch docType {
	case "scotus":
		caseName := firstNonEmpty(stringOr(metadata, "case_name", ""), stringOr(chunkMetadata, "case_name", ""), "Supreme Court Opinion")
		out = append(out, fmt.Sprintf("### %s", caseName))
		if doc.Date != "" {
			out = append(out, fmt.Sprintf("**Date:** %s", doc.Date))
		}
		opinionType := firstNonEmpty(stringOr(metadata, "opinion_type", ""), stringOr(chunkMetadata, "opinion_type", ""))
		if opinionType != "" {
			descriptor := fmt.Sprintf("**%s Opinion**", strings.Title(opinionType))
			if justice := firstNonEmpty(stringOr(metadata, "justice", ""), stringOr(metadata, "author", "")); justice != "" {
				descriptor = fmt.Sprintf("%s by %s", descriptor, justice)
			}
			out = append(out, descriptor)
		}
		out = append(out, "\n### Full Opinion Text:")
		out = append(out, nonEmptyOr(doc.Content, "Full opinion text unavailable."))
		out = append(out, f.renderMetadataBlock("supreme_court_opinions", metadata)...)

	case "executive_order":
		title := firstNonEmpty(stringOr(metadata, "title", ""), stringOr(chunkMetadata, "title", ""), "Executive Order")
		out = append(out, fmt.Sprintf("### %s", title))
		if eoNumber := firstNonEmpty(stringOr(metadata, "executive_order_number", ""), stringOr(chunkMetadata, "executive_order_number", "")); eoNumber != "" {
			out = append(out, fmt.Sprintf("**EO Number:** %s", eoNumber))
		}
		if president := presidentName(metadata, chunkMetadata); president != "" {
			out = append(out, fmt.Sprintf("**President:** %s", president))
		}
		if doc.Date != "" {
			out = append(out, fmt.Sprintf("**Date:** %s", doc.Date))
		}
		out = append(out, "\n### Full Order Text:")
		out = append(out, nonEmptyOr(doc.Content, "Full executive order text unavailable."))
		out = append(out, f.renderMetadataBlock("executive_orders", metadata)...)

	default:
		out = append(out, "### Document")
		out = append(out, nonEmptyOr(doc.Content, "Full document text unavailable."))
	}

	return strings.Join(out, "\n")
}

func (f *Formatter) renderMetadataBlock(collection string, metadata map[string]any) []string {
	extra := f.extractRelevantMetadata(collection, metadata)
	if len(extra) == 0 {
		return nil
	}
	out := []string{"\n### Metadata:"}
	for key, value := range extra {
		out = append(out, fmt.Sprintf("- **%s:** %s", key, value))
	}
	return out
}

// FormatCollectionsList renders the list_collections tool's response.
func (f *Formatter) FormatCollectionsList(collections []CollectionSummary) string {
	out := []string{"## Available Document Collections\n"}

	for i, c := range collections {
		out = append(out, fmt.Sprintf("### %d. %s", i+1, c.Name))
		if c.Err != nil {
			out = append(out, fmt.Sprintf("*Error retrieving collection info: %v*", c.Err))
		} else {
			out = append(out, fmt.Sprintf("- **Total Chunks:** %s", commaInt(c.PointsCount)))
			out = append(out, fmt.Sprintf("- **Vector Count:** %s", commaInt(c.VectorCount)))
			if len(c.SampleMetadata) > 0 {
				out = append(out, "- **Available Metadata Fields:**")
				fields := make([]string, 0, len(c.SampleMetadata))
				for k := range c.SampleMetadata {
					fields = append(fields, k)
				}
				sort.Strings(fields)
				if len(fields) > 10 {
					fields = fields[:10]
				}
				for _, field := range fields {
					out = append(out, fmt.Sprintf("  - %s", field))
				}
			}
		}
		out = append(out, "")
	}

	out = append(out, "### Collection Features:")
	out = append(out, "- Hierarchical chunking preserves document structure")
	out = append(out, "- Rich metadata enables advanced filtering")
	out = append(out, "- Semantic search with OpenAI text-embedding-3-small")
	out = append(out, "- Real-time document retrieval from government APIs")

	return strings.Join(out, "\n")
}

func (f *Formatter) formatScotusChunk(index int, payload map[string]any, score float64, detailed bool) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("### %d. %s", index, stringOr(payload, "case_name", "Unknown Case")))

	if citation := stringOr(payload, "citation", ""); citation != "" {
		lines = append(lines, fmt.Sprintf("*%s*", citation))
	}

	opinionType := strings.Title(stringOr(payload, "opinion_type", ""))
	justice := stringOr(payload, "justice", "")
	section := stringOr(payload, "section", "")
	if opinionType != "" {
		parts := []string{fmt.Sprintf("**%s Opinion**", opinionType)}
		if justice != "" {
			parts = append(parts, fmt.Sprintf("by Justice %s", justice))
		}
		if section != "" {
			parts = append(parts, fmt.Sprintf("(Section %s)", section))
		}
		lines = append(lines, strings.Join(parts, " "))
	}

	lines = append(lines, "\n**Excerpt:**")
	lines = append(lines, f.truncate(chunkText(payload)))

	if detailed {
		lines = append(lines, "\n**Legal Context:**")
		if topics := stringSliceOr(payload, "legal_topics"); len(topics) > 0 {
			lines = append(lines, fmt.Sprintf("- **Legal Topics:** %s", strings.Join(topics, ", ")))
		}
		if provisions := stringSliceOr(payload, "constitutional_provisions"); len(provisions) > 0 {
			lines = append(lines, fmt.Sprintf("- **Constitutional Provisions:** %s", strings.Join(provisions, ", ")))
		}
		if statutes := stringSliceOr(payload, "statutes_interpreted"); len(statutes) > 0 {
			lines = append(lines, fmt.Sprintf("- **Statutes:** %s", strings.Join(statutes, ", ")))
		}
		if vote := stringOr(payload, "vote_breakdown", ""); vote != "" {
			lines = append(lines, fmt.Sprintf("- **Vote:** %s", vote))
		}
		if holding := stringOr(payload, "holding", ""); holding != "" {
			lines = append(lines, fmt.Sprintf("- **Key Holding:** %s...", truncateRunes(holding, 200)))
		}
	}

	lines = append(lines, fmt.Sprintf("\n*Relevance Score: %.3f*", score))
	return strings.Join(lines, "\n")
}

func (f *Formatter) formatEOChunk(index int, payload map[string]any, score float64, detailed bool) string {
	var lines []string
	title := stringOr(payload, "title", "Unknown Executive Order")
	lines = append(lines, fmt.Sprintf("### %d. %s", index, title))
	if eoNumber := stringOr(payload, "executive_order_number", ""); eoNumber != "" {
		lines = append(lines, fmt.Sprintf("**EO Number:** %s", eoNumber))
	}

	president := stringOr(payload, "president", "")
	signingDate := timestampFieldToDate(payload, "signing_date")
	if president != "" || signingDate != "" {
		var parts []string
		if president != "" {
			parts = append(parts, fmt.Sprintf("President %s", president))
		}
		if signingDate != "" {
			parts = append(parts, fmt.Sprintf("Signed %s", signingDate))
		}
		lines = append(lines, fmt.Sprintf("**%s**", strings.Join(parts, " | ")))
	}

	if sectionTitle := stringOr(payload, "section_title", ""); sectionTitle != "" {
		lines = append(lines, fmt.Sprintf("\n**%s**", sectionTitle))
	} else if chunkType := stringOr(payload, "chunk_type", ""); chunkType != "" {
		lines = append(lines, fmt.Sprintf("\n**Document Part: %s**", strings.Title(chunkType)))
	}

	lines = append(lines, "\n**Excerpt:**")
	lines = append(lines, f.truncate(chunkText(payload)))

	if detailed {
		lines = append(lines, "\n**Policy Context:**")
		if summary := stringOr(payload, "summary", ""); summary != "" {
			lines = append(lines, fmt.Sprintf("- **Summary:** %s...", truncateRunes(summary, 200)))
		}
		if topics := stringSliceOr(payload, "policy_topics"); len(topics) > 0 {
			lines = append(lines, fmt.Sprintf("- **Policy Topics:** %s", strings.Join(topics, ", ")))
		}
		if agencies := stringSliceOr(payload, "impacted_agencies"); len(agencies) > 0 {
			lines = append(lines, fmt.Sprintf("- **Agencies:** %s", strings.Join(agencies, ", ")))
		}
		if authorities := stringSliceOr(payload, "legal_authorities"); len(authorities) > 0 {
			if len(authorities) > 3 {
				authorities = authorities[:3]
			}
			lines = append(lines, fmt.Sprintf("- **Legal Authorities:** %s", strings.Join(authorities, ", ")))
		}
		if sectors := stringSliceOr(payload, "economic_sectors"); len(sectors) > 0 {
			lines = append(lines, fmt.Sprintf("- **Economic Sectors:** %s", strings.Join(sectors, ", ")))
		}
	}

	lines = append(lines, fmt.Sprintf("\n*Relevance Score: %.3f*", score))
	return strings.Join(lines, "\n")
}

func (f *Formatter) formatGenericChunk(index int, payload map[string]any, score float64) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("### %d. Document Chunk", index))

	for _, key := range []string{"title", "name", "document_id", "id"} {
		if v, ok := payload[key]; ok {
			lines = append(lines, fmt.Sprintf("**%s:** %v", strings.Title(key), v))
			break
		}
	}

	lines = append(lines, fmt.Sprintf("\n**Content:**\n%s", f.truncate(chunkText(payload))))
	lines = append(lines, fmt.Sprintf("\n*Relevance Score: %.3f*", score))
	return strings.Join(lines, "\n")
}

var scotusMetadataFields = []string{
	"opinion_type", "justice", "section", "publication_date",
	"legal_topics", "constitutional_provisions", "statutes_interpreted", "vote_breakdown",
}

var eoMetadataFields = []string{
	"president", "signing_date", "chunk_type", "section_title",
	"policy_topics", "impacted_agencies", "legal_authorities", "economic_sectors",
}

var dateMetadataFields = map[string]bool{
	"publication_date": true, "signing_date": true, "argued_date": true,
	"decided_date": true, "effective_date": true,
}

func (f *Formatter) extractRelevantMetadata(collection string, payload map[string]any) map[string]string {
	var fields []string
	switch collection {
	case "supreme_court_opinions":
		fields = scotusMetadataFields
	case "executive_orders":
		fields = eoMetadataFields
	default:
		for k := range payload {
			if k != "text" {
				fields = append(fields, k)
			}
		}
		sort.Strings(fields)
		if len(fields) > 10 {
			fields = fields[:10]
		}
	}

	out := make(map[string]string, len(fields))
	for _, field := range fields {
		v, ok := payload[field]
		if !ok || v == nil {
			continue
		}
		var rendered string
		switch val := v.(type) {
		case string:
			if val == "" {
				continue
			}
			rendered = val
		case int64:
			if dateMetadataFields[field] {
				rendered = FormatTimestampToDate(&val)
			} else {
				rendered = fmt.Sprintf("%d", val)
			}
		case float64:
			if dateMetadataFields[field] {
				ts := int64(val)
				rendered = FormatTimestampToDate(&ts)
			} else {
				rendered = fmt.Sprintf("%v", val)
			}
		case []any:
			parts := make([]string, len(val))
			for i, item := range val {
				parts[i] = fmt.Sprintf("%v", item)
			}
			rendered = strings.Join(parts, ", ")
		case map[string]any:
			if name, ok := val["name"].(string); ok {
				rendered = name
			} else if b, err := json.Marshal(val); err == nil {
				rendered = string(b)
			}
		default:
			rendered = fmt.Sprintf("%v", val)
		}
		out[titleCaseField(field)] = rendered
	}
	return out
}

// generateFullDocumentHint suggests get_document_by_id follow-ups when a
// search is focused (few hits) and relevant enough (a high top score) that
// loading the source document would help, deduplicating by document_id.
func (f *Formatter) generateFullDocumentHint(hits []Hit, maxResults int, minScore float64) string {
	if len(hits) == 0 || len(hits) > maxResults {
		return ""
	}

	maxScore := hits[0].Score
	for _, h := range hits {
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}
	if maxScore < minScore {
		return ""
	}

	seen := map[string]bool{}
	var docHints []string

	for _, hit := range hits {
		documentID := stringOr(hit.Payload, "document_id", "")
		if documentID == "" || seen[documentID] {
			continue
		}

		var collection, title string
		switch {
		case hit.Type == "scotus" || hit.Payload["case_name"] != nil:
			collection = "supreme_court_opinions"
			title = firstNonEmpty(stringOr(hit.Payload, "case_name", ""), stringOr(hit.Payload, "title", ""), "Document")
		case hit.Type == "executive_order" || hit.Payload["executive_order_number"] != nil:
			collection = "executive_orders"
			eoNumber := stringOr(hit.Payload, "executive_order_number", "")
			title = firstNonEmpty(stringOr(hit.Payload, "title", ""), fmt.Sprintf("Executive Order %s", eoNumber))
		default:
			continue
		}
		seen[documentID] = true

		chunkID := firstNonEmpty(stringOr(hit.Payload, "chunk_id", ""), fmt.Sprintf("%s_chunk_0", documentID))
		docHints = append(docHints, fmt.Sprintf("**%s:**\n```\nget_document_by_id(\n    document_id=%q,\n    collection=%q,\n    full_document=true\n)\n```", title, chunkID, collection))
	}

	if len(docHints) == 0 {
		return ""
	}

	docNoun := "document"
	if hits[0].Type == "scotus" {
		docNoun = "opinion"
	}
	caseWord := fmt.Sprintf("these %d documents", len(docHints))
	if len(docHints) == 1 {
		caseWord = "this case"
	}
	intro := fmt.Sprintf("For detailed analysis of %s, you can load the complete %s text:", caseWord, docNoun)

	out := []string{"\n---\n", "## Full Document Access\n", intro, ""}
	out = append(out, docHints...)
	out = append(out, "\nLoading the full document enables comprehensive follow-up questions without additional searches.")
	return strings.Join(out, "\n")
}

func (f *Formatter) truncate(text string) string {
	return truncateRunes(text, f.MaxChunkLength)
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func chunkText(payload map[string]any) string {
	if t := stringOr(payload, "text", ""); t != "" {
		return t
	}
	return stringOr(payload, "chunk_text", "No text available")
}

func sniffType(payload map[string]any) string {
	if payload["case_name"] != nil || payload["opinion_type"] != nil {
		return "scotus"
	}
	if payload["executive_order_number"] != nil || payload["president"] != nil {
		return "executive_order"
	}
	return ""
}

func stringOr(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func stringSliceOr(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func timestampFieldToDate(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case int64:
		return FormatTimestampToDate(&t)
	case float64:
		ts := int64(t)
		return FormatTimestampToDate(&ts)
	case string:
		return t
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonEmptyOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func presidentName(metadata, chunkMetadata map[string]any) string {
	if name := presidentFrom(metadata); name != "" {
		return name
	}
	return presidentFrom(chunkMetadata)
}

func presidentFrom(m map[string]any) string {
	v, ok := m["president"]
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if name, ok := val["name"].(string); ok {
			return name
		}
		if name, ok := val["full_name"].(string); ok {
			return name
		}
		if name, ok := val["title"].(string); ok {
			return name
		}
	}
	return ""
}

func titleCaseField(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func commaInt(n uint64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
