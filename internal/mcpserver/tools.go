package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	mcp "github.com/metoro-io/mcp-golang"

	"governmentreporter/internal/govapi"
	"governmentreporter/internal/observability"
	"governmentreporter/internal/queryformat"
)

// SearchGovernmentDocumentsArgs is search_government_documents' input: a
// free-text query optionally narrowed to one or both collections.
type SearchGovernmentDocumentsArgs struct {
	Query         string   `json:"query" jsonschema:"required,description=The search query to find relevant documents"`
	DocumentTypes []string `json:"document_types,omitempty" jsonschema:"description=Optional: types of documents to search (scotus, executive_orders); default both"`
	Limit         int      `json:"limit,omitempty" jsonschema:"minimum=1,maximum=50,description=Maximum number of results to return (default 10)"`
}

// SearchScotusOpinionsArgs is search_scotus_opinions' input.
type SearchScotusOpinionsArgs struct {
	Query       string `json:"query" jsonschema:"required,description=The search query for SCOTUS opinions"`
	OpinionType string `json:"opinion_type,omitempty" jsonschema:"enum=majority,enum=concurring,enum=dissenting,enum=syllabus,description=Filter by type of opinion"`
	Justice     string `json:"justice,omitempty" jsonschema:"description=Filter by authoring justice name"`
	StartDate   string `json:"start_date,omitempty" jsonschema:"description=Start date for filtering (YYYY-MM-DD)"`
	EndDate     string `json:"end_date,omitempty" jsonschema:"description=End date for filtering (YYYY-MM-DD)"`
	Limit       int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=50,description=Maximum number of results (default 10)"`
}

// SearchExecutiveOrdersArgs is search_executive_orders' input.
type SearchExecutiveOrdersArgs struct {
	Query        string   `json:"query" jsonschema:"required,description=The search query for Executive Orders"`
	President    string   `json:"president,omitempty" jsonschema:"description=Filter by president name"`
	Agencies     []string `json:"agencies,omitempty" jsonschema:"description=Filter by impacted agency codes (e.g. EPA, DOJ)"`
	PolicyTopics []string `json:"policy_topics,omitempty" jsonschema:"description=Filter by policy topics"`
	StartDate    string   `json:"start_date,omitempty" jsonschema:"description=Start date for filtering (YYYY-MM-DD)"`
	EndDate      string   `json:"end_date,omitempty" jsonschema:"description=End date for filtering (YYYY-MM-DD)"`
	Limit        int      `json:"limit,omitempty" jsonschema:"minimum=1,maximum=50,description=Maximum number of results (default 10)"`
}

// GetDocumentByIDArgs is get_document_by_id's input.
type GetDocumentByIDArgs struct {
	DocumentID   string `json:"document_id" jsonschema:"required,description=The ID of the document to retrieve"`
	Collection   string `json:"collection" jsonschema:"required,enum=supreme_court_opinions,enum=executive_orders,description=The collection to search in"`
	FullDocument bool   `json:"full_document,omitempty" jsonschema:"description=Whether to retrieve the full document from the API (default false)"`
}

// ListCollectionsArgs is list_collections' input (it takes no parameters).
type ListCollectionsArgs struct{}

func (s *Server) registerTools() error {
	tools := []struct {
		name        string
		description string
		handler     interface{}
	}{
		{
			"search_government_documents",
			"Search across all US government documents including Supreme Court opinions and Executive Orders. Returns relevant document chunks with metadata for context-aware responses.",
			func(args SearchGovernmentDocumentsArgs) (*mcp.ToolResponse, error) {
				return textResponse(s.deps.searchGovernmentDocuments(context.Background(), args))
			},
		},
		{
			"search_scotus_opinions",
			"Search specifically within Supreme Court opinions with advanced filtering by opinion type, justice, and date range.",
			func(args SearchScotusOpinionsArgs) (*mcp.ToolResponse, error) {
				return textResponse(s.deps.searchScotusOpinions(context.Background(), args))
			},
		},
		{
			"search_executive_orders",
			"Search specifically within federal Executive Orders with filtering by president, agencies, policy topics, and date range.",
			func(args SearchExecutiveOrdersArgs) (*mcp.ToolResponse, error) {
				return textResponse(s.deps.searchExecutiveOrders(context.Background(), args))
			},
		},
		{
			"get_document_by_id",
			"Retrieve a specific document or document chunk by its ID. Useful for getting more context about a previously found document.",
			func(args GetDocumentByIDArgs) (*mcp.ToolResponse, error) {
				return textResponse(s.deps.getDocumentByID(context.Background(), args))
			},
		},
		{
			"list_collections",
			"List all available document collections in the vector database with statistics about each collection.",
			func(args ListCollectionsArgs) (*mcp.ToolResponse, error) {
				return textResponse(s.deps.listCollections(context.Background()))
			},
		},
	}

	for _, tool := range tools {
		if err := s.server.RegisterTool(tool.name, tool.description, tool.handler); err != nil {
			return fmt.Errorf("register tool %s: %w", tool.name, err)
		}
	}
	return nil
}

func textResponse(text string) (*mcp.ToolResponse, error) {
	return mcp.NewToolResponse(mcp.NewTextContent(text)), nil
}

// SearchGovernmentDocumentsText runs the same cross-collection search as the
// search_government_documents tool, for callers outside the MCP protocol
// (the CLI's query subcommand).
func (d Deps) SearchGovernmentDocumentsText(ctx context.Context, query string, limit int) string {
	return d.searchGovernmentDocuments(ctx, SearchGovernmentDocumentsArgs{Query: query, Limit: limit})
}

func (d Deps) searchGovernmentDocuments(ctx context.Context, args SearchGovernmentDocumentsArgs) string {
	if args.Query == "" {
		return "Error: Query parameter is required"
	}
	types := args.DocumentTypes
	if len(types) == 0 {
		types = []string{"scotus", "executive_orders"}
	}
	limit := d.limit(args.Limit)

	vec, err := d.Embedder.GenerateEmbedding(ctx, args.Query)
	if err != nil {
		return fmt.Sprintf("Error performing search: %v", err)
	}

	var hits []queryformat.Hit
	for _, t := range types {
		switch t {
		case "scotus":
			hits = append(hits, d.searchCollection(ctx, ScotusCollection, "scotus", vec, limit, nil)...)
		case "executive_orders":
			hits = append(hits, d.searchCollection(ctx, EOCollection, "executive_order", vec, limit, nil)...)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	return d.Formatter.FormatSearchResults(args.Query, hits)
}

func (d Deps) searchScotusOpinions(ctx context.Context, args SearchScotusOpinionsArgs) string {
	if args.Query == "" {
		return "Error: Query parameter is required"
	}
	limit := d.limit(args.Limit)

	vec, err := d.Embedder.GenerateEmbedding(ctx, args.Query)
	if err != nil {
		return fmt.Sprintf("Error performing SCOTUS search: %v", err)
	}

	filter := map[string]any{}
	if args.OpinionType != "" {
		filter["opinion_type"] = args.OpinionType
	}
	if args.Justice != "" {
		filter["justice"] = args.Justice
	}

	// Over-fetch so a client-side date-range filter (Store's exact-match
	// filter can't express a range) still leaves `limit` results.
	fetchLimit := limit
	if args.StartDate != "" || args.EndDate != "" {
		fetchLimit = limit * 4
	}

	hits := d.searchCollection(ctx, ScotusCollection, "scotus", vec, fetchLimit, filter)
	hits = filterByDateRange(hits, "date", args.StartDate, args.EndDate)
	if len(hits) > limit {
		hits = hits[:limit]
	}

	return d.Formatter.FormatScotusResults(args.Query, hits)
}

func (d Deps) searchExecutiveOrders(ctx context.Context, args SearchExecutiveOrdersArgs) string {
	if args.Query == "" {
		return "Error: Query parameter is required"
	}
	limit := d.limit(args.Limit)

	vec, err := d.Embedder.GenerateEmbedding(ctx, args.Query)
	if err != nil {
		return fmt.Sprintf("Error performing Executive Order search: %v", err)
	}

	filter := map[string]any{}
	if args.President != "" {
		filter["president"] = args.President
	}

	fetchLimit := limit
	if args.StartDate != "" || args.EndDate != "" || len(args.Agencies) > 0 || len(args.PolicyTopics) > 0 {
		fetchLimit = limit * 4
	}

	hits := d.searchCollection(ctx, EOCollection, "executive_order", vec, fetchLimit, filter)
	hits = filterByDateRange(hits, "signing_date", args.StartDate, args.EndDate)
	hits = filterByAnyOf(hits, "impacted_agencies", args.Agencies)
	hits = filterByAnyOf(hits, "policy_topics", args.PolicyTopics)
	if len(hits) > limit {
		hits = hits[:limit]
	}

	return d.Formatter.FormatEOResults(args.Query, hits)
}

func (d Deps) searchCollection(ctx context.Context, collection, hitType string, vector []float32, limit int, filter map[string]any) []queryformat.Hit {
	store, err := d.store(collection)
	if err != nil {
		observability.LoggerWithTrace(ctx).Error().Err(err).Str("collection", collection).Msg("search_collection_unavailable")
		return nil
	}
	results, err := store.SimilaritySearch(ctx, vector, limit, filter)
	if err != nil {
		observability.LoggerWithTrace(ctx).Error().Err(err).Str("collection", collection).Msg("similarity_search_failed")
		return nil
	}
	hits := make([]queryformat.Hit, len(results))
	for i, r := range results {
		hits[i] = queryformat.Hit{Type: hitType, Score: r.Score, Payload: r.Payload}
	}
	return hits
}

func (d Deps) getDocumentByID(ctx context.Context, args GetDocumentByIDArgs) string {
	if args.DocumentID == "" || args.Collection == "" {
		return "Error: document_id and collection parameters are required"
	}

	store, err := d.store(args.Collection)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	result, err := store.GetByID(ctx, args.DocumentID)
	if err != nil {
		return fmt.Sprintf("Error retrieving document: %v", err)
	}
	if result == nil {
		return fmt.Sprintf("Document with ID %s not found in %s", args.DocumentID, args.Collection)
	}

	if args.FullDocument {
		docType := "scotus"
		if args.Collection == EOCollection {
			docType = "executive_order"
		}
		if doc, ok := d.fetchFullDocument(ctx, docType, result.Payload); ok {
			return d.Formatter.FormatFullDocument(docType, doc, result.Payload)
		}
	}

	return d.Formatter.FormatDocumentChunk(args.Collection, args.DocumentID, result.Payload)
}

func (d Deps) fetchFullDocument(ctx context.Context, docType string, payload map[string]any) (govapi.Document, bool) {
	documentID, _ := payload["document_id"].(string)
	if documentID == "" {
		return govapi.Document{}, false
	}

	switch docType {
	case "scotus":
		if d.CourtListener == nil {
			return govapi.Document{}, false
		}
		opinionID, err := strconv.Atoi(documentID)
		if err != nil {
			return govapi.Document{}, false
		}
		_, cluster, err := d.CourtListener.ValidateCourt(ctx, opinionID)
		if err != nil {
			return govapi.Document{}, false
		}
		op, err := d.CourtListener.GetOpinion(ctx, opinionID)
		if err != nil {
			return govapi.Document{}, false
		}
		return op.ToDocument(cluster), true

	case "executive_order":
		if d.FederalRegister == nil {
			return govapi.Document{}, false
		}
		eo, err := d.FederalRegister.GetExecutiveOrder(ctx, documentID)
		if err != nil {
			return govapi.Document{}, false
		}
		text, err := d.FederalRegister.FetchRawText(ctx, eo.RawTextURL)
		if err != nil {
			text = eo.Abstract
		}
		return eo.ToDocument(text), true
	}
	return govapi.Document{}, false
}

func (d Deps) listCollections(ctx context.Context) string {
	var summaries []queryformat.CollectionSummary
	for _, name := range []string{ScotusCollection, EOCollection} {
		store, ok := d.Stores[name]
		if !ok || store == nil {
			continue
		}
		info, err := store.CollectionInfo(ctx)
		if err != nil {
			summaries = append(summaries, queryformat.CollectionSummary{Name: name, Err: err})
			continue
		}
		summaries = append(summaries, queryformat.CollectionSummary{
			Name:        name,
			VectorCount: info.VectorCount,
			PointsCount: info.VectorCount,
		})
	}
	return d.Formatter.FormatCollectionsList(summaries)
}

func filterByDateRange(hits []queryformat.Hit, field, start, end string) []queryformat.Hit {
	if start == "" && end == "" {
		return hits
	}
	out := hits[:0]
	for _, h := range hits {
		date, _ := h.Payload[field].(string)
		if date == "" {
			continue
		}
		if start != "" && date < start {
			continue
		}
		if end != "" && date > end {
			continue
		}
		out = append(out, h)
	}
	return out
}

func filterByAnyOf(hits []queryformat.Hit, field string, wanted []string) []queryformat.Hit {
	if len(wanted) == 0 {
		return hits
	}
	want := make(map[string]bool, len(wanted))
	for _, w := range wanted {
		want[strings.ToLower(w)] = true
	}
	out := hits[:0]
	for _, h := range hits {
		values, _ := h.Payload[field].([]any)
		matched := false
		for _, v := range values {
			if s, ok := v.(string); ok && want[strings.ToLower(s)] {
				matched = true
				break
			}
		}
		if matched {
			out = append(out, h)
		}
	}
	return out
}
