// Package payload implements L7: orchestration that turns a normalized
// Document (L2) into Qdrant-ready chunk payloads, stitching together the
// chunker (L3), the LLM metadata extractor (L5), and document-level field
// normalization into the combined metadata map each chunk carries into the
// vector store. Embeddings (L6) are filled in by the caller afterward —
// building a payload never itself calls out to an embedding model.
package payload

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"governmentreporter/internal/chunking"
	"governmentreporter/internal/config"
	"governmentreporter/internal/errs"
	"governmentreporter/internal/govapi"
	"governmentreporter/internal/llmextract"
	"governmentreporter/internal/observability"
	"governmentreporter/internal/tokencount"
)

// Chunk is one chunk of a document, ready for embedding and storage: it
// carries the combined document-level and chunk-level metadata the MCP
// server and query formatter read back out at search time.
type Chunk struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Builder assembles chunk payloads from Documents.
type Builder struct {
	counter   tokencount.Counter
	extractor *llmextract.Extractor
	scotusCfg config.ChunkingConfig
	eoCfg     config.ChunkingConfig
}

// NewBuilder constructs a Builder using the given token counter, LLM field
// extractor, and per-document-type chunking windows.
func NewBuilder(counter tokencount.Counter, extractor *llmextract.Extractor, scotusCfg, eoCfg config.ChunkingConfig) *Builder {
	return &Builder{counter: counter, extractor: extractor, scotusCfg: scotusCfg, eoCfg: eoCfg}
}

func extractYear(dateStr string) int {
	if len(dateStr) >= 4 {
		if y, err := strconv.Atoi(dateStr[:4]); err == nil {
			return y
		}
	}
	return time.Now().Year()
}

func isScotus(doc govapi.Document) bool {
	return doc.Type == "Supreme Court Opinion" ||
		doc.Source == "CourtListener" ||
		containsFold(doc.Type, "scotus") ||
		containsFold(doc.Source, "court")
}

func isEO(doc govapi.Document) bool {
	return doc.Type == "Executive Order" ||
		doc.Source == "FederalRegister" ||
		doc.Source == "Federal Register" ||
		containsFold(doc.Type, "executive") ||
		containsFold(doc.Source, "federal")
}

func containsFold(s, substr string) bool {
	return len(s) > 0 && strings.Contains(strings.ToLower(s), substr)
}

// BuildFromDocument routes doc to the Supreme Court or Executive Order
// pipeline based on its Type/Source fields, returning one payload per
// emitted chunk. A document whose type cannot be classified, or that has
// no content, is rejected with errs.KindDomainViolation.
func (b *Builder) BuildFromDocument(ctx context.Context, doc govapi.Document) ([]Chunk, error) {
	if doc.Content == "" {
		return nil, errs.New(errs.KindDomainViolation, fmt.Errorf("document %s has no content to process", doc.ID))
	}

	scotus := isScotus(doc)
	eo := isEO(doc)
	if !scotus && !eo {
		return nil, errs.New(errs.KindDomainViolation, fmt.Errorf("document %s has unrecognized type %q / source %q", doc.ID, doc.Type, doc.Source))
	}

	if scotus {
		return b.buildScotus(ctx, doc)
	}
	return b.buildEO(ctx, doc)
}

func (b *Builder) buildScotus(ctx context.Context, doc govapi.Document) ([]Chunk, error) {
	docMeta := normalizeScotusMetadata(doc)

	chunks, syllabus := chunking.ChunkSupremeCourtOpinion(b.counter, b.scotusCfg, doc.Content)
	if len(chunks) == 0 {
		observability.LoggerWithTrace(ctx).Warn().Str("document_id", doc.ID).Msg("no_chunks_generated")
		return nil, nil
	}

	fields, ok := b.extractor.ExtractScotusFields(ctx, doc.Content, syllabus)

	full := make(map[string]any, len(docMeta)+16)
	for k, v := range docMeta {
		full[k] = v
	}
	mergeScotusFields(full, fields)
	if !ok {
		full["llm_extraction_failed"] = true
		full["requires_reprocessing"] = true
	}

	return assemblePayloads(doc.ID, chunks, full), nil
}

func (b *Builder) buildEO(ctx context.Context, doc govapi.Document) ([]Chunk, error) {
	docMeta := normalizeEOMetadata(doc)

	chunks := chunking.ChunkExecutiveOrder(b.counter, b.eoCfg, doc.Content)
	if len(chunks) == 0 {
		observability.LoggerWithTrace(ctx).Warn().Str("document_id", doc.ID).Msg("no_chunks_generated")
		return nil, nil
	}

	fields, ok := b.extractor.ExtractEOFields(ctx, doc.Content)

	full := make(map[string]any, len(docMeta)+16)
	for k, v := range docMeta {
		full[k] = v
	}
	mergeEOFields(full, fields)
	if !ok {
		full["llm_extraction_failed"] = true
		full["requires_reprocessing"] = true
	}

	return assemblePayloads(doc.ID, chunks, full), nil
}

func assemblePayloads(docID string, chunks []chunking.Chunk, docMeta map[string]any) []Chunk {
	payloads := make([]Chunk, 0, len(chunks))
	for i, c := range chunks {
		chunkID := fmt.Sprintf("%s_chunk_%d", docID, i)

		combined := make(map[string]any, len(docMeta)+3)
		for k, v := range docMeta {
			combined[k] = v
		}
		combined["chunk_id"] = chunkID
		combined["chunk_index"] = i
		combined["section_label"] = c.SectionLabel

		payloads = append(payloads, Chunk{ID: chunkID, Text: c.Text, Metadata: combined})
	}
	return payloads
}

func normalizeScotusMetadata(doc govapi.Document) map[string]any {
	meta := doc.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	caseName, _ := meta["case_name"].(string)
	if caseName == "" {
		caseName = doc.Title
	}

	opinionType, _ := meta["type"].(string)
	if opinionType != "" {
		if mapped, ok := scotusTypeMapping[opinionType]; ok {
			opinionType = mapped
		}
	}

	url := doc.URL
	if url == "" {
		if s, ok := meta["absolute_url"].(string); ok {
			url = s
		} else if s, ok := meta["download_url"].(string); ok {
			url = s
		}
	}

	source := doc.Source
	if foldEq(source, "courtlistener") {
		source = "CourtListener"
	}
	docType := doc.Type
	if foldEq(docType, "scotus_opinion") {
		docType = "Supreme Court Opinion"
	}

	return map[string]any{
		"document_id":     doc.ID,
		"title":           caseName,
		"publication_date": doc.Date,
		"year":            extractYear(doc.Date),
		"source":          source,
		"type":            docType,
		"url":             url,
		"case_name":       caseName,
		"opinion_type":    opinionType,
		"judges":          stringOr(meta["judges"], ""),
		"author_str":      stringOr(meta["author_str"], ""),
		"per_curiam":      boolOr(meta["per_curiam"], false),
		"joined_by_str":   stringOr(meta["joined_by_str"], ""),
		"docket_number":   meta["docket_number"],
		"majority_author": meta["majority_author"],
		"vote_majority":   meta["vote_majority"],
	}
}

var scotusTypeMapping = map[string]string{
	"010combined":            "majority",
	"020lead":                "majority",
	"030concurrence":         "concurrence",
	"040dissent":             "dissent",
	"050concurrence_dissent": "concurrence_dissent",
}

func normalizeEOMetadata(doc govapi.Document) map[string]any {
	meta := doc.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	eoNumber := stringOr(meta["executive_order_number"], "")
	if eoNumber == "" {
		eoNumber = stringOr(meta["presidential_document_number"], "")
	}

	url := doc.URL
	if url == "" {
		if s, ok := meta["html_url"].(string); ok {
			url = s
		} else if s, ok := meta["pdf_url"].(string); ok {
			url = s
		}
	}

	presidentName := ""
	switch p := meta["president"].(type) {
	case map[string]any:
		presidentName = stringOr(p["name"], "")
	case string:
		presidentName = p
	}

	source := doc.Source
	if foldEq(source, "federal_register") {
		source = "Federal Register"
	}
	docType := doc.Type
	if foldEq(docType, "executive_order") {
		docType = "Executive Order"
	}

	signingDate := stringOr(meta["signing_date"], doc.Date)

	agencies := meta["agencies"]
	if agencies == nil {
		agencies = []string{}
	}

	return map[string]any{
		"document_id":             doc.ID,
		"title":                   doc.Title,
		"publication_date":        doc.Date,
		"year":                    extractYear(doc.Date),
		"source":                  source,
		"type":                    docType,
		"url":                     url,
		"eo_number":               eoNumber,
		"executive_order_number":  eoNumber,
		"president":               presidentName,
		"agencies":                agencies,
		"signing_date":            signingDate,
	}
}

func mergeScotusFields(full map[string]any, f llmextract.ScotusFields) {
	full["plain_language_summary"] = f.PlainLanguageSummary
	full["constitution_cited"] = f.ConstitutionCited
	full["federal_statutes_cited"] = f.FederalStatutesCited
	full["federal_regulations_cited"] = f.FederalRegulationsCited
	full["cases_cited"] = f.CasesCited
	full["topics_or_policy_areas"] = f.TopicsOrPolicyAreas
	full["holding_plain"] = f.HoldingPlain
	full["outcome_simple"] = f.OutcomeSimple
	full["issue_plain"] = f.IssuePlain
	full["reasoning"] = f.Reasoning
}

func mergeEOFields(full map[string]any, f llmextract.EOFields) {
	full["plain_language_summary"] = f.PlainLanguageSummary
	full["agencies_impacted"] = f.AgenciesImpacted
	full["constitution_cited"] = f.ConstitutionCited
	full["federal_statutes_cited"] = f.FederalStatutesCited
	full["federal_regulations_cited"] = f.FederalRegulationsCited
	full["cases_cited"] = f.CasesCited
	full["topics_or_policy_areas"] = f.TopicsOrPolicyAreas
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func boolOr(v any, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func foldEq(s, want string) bool {
	return strings.EqualFold(s, want)
}
