package ingest

import (
	"context"
	"sync"

	"governmentreporter/internal/govapi"
	"governmentreporter/internal/payload"
)

// EOSource discovers and builds chunk payloads for Executive Orders via
// the Federal Register. It caches each order's listing metadata (keyed by
// document number) and raw text (keyed by raw_text_url, since a handful of
// orders share URLs with their correction notices) across the run.
type EOSource struct {
	Client     *govapi.FederalRegisterClient
	Builder    *payload.Builder
	StartDate  string
	EndDate    string
	MaxResults int

	mu        sync.Mutex
	listing   map[string]govapi.ExecutiveOrderSummary
	textCache map[string]string
}

// FetchDocumentIDs lists every Executive Order signed in [StartDate,
// EndDate], populating the in-memory listing cache BuildChunks reads from.
func (s *EOSource) FetchDocumentIDs(ctx context.Context) ([]SourceDocument, error) {
	eos, err := s.Client.ListExecutiveOrders(ctx, s.StartDate, s.EndDate, s.MaxResults)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.listing = make(map[string]govapi.ExecutiveOrderSummary, len(eos))
	for _, eo := range eos {
		s.listing[eo.DocumentNumber] = eo
	}
	s.mu.Unlock()

	docs := make([]SourceDocument, len(eos))
	for i, eo := range eos {
		docs[i] = SourceDocument{ID: eo.DocumentNumber, Metadata: map[string]any{
			"title":                  eo.Title,
			"executive_order_number": eo.ExecutiveOrderNumber,
			"signing_date":           eo.SigningDate,
		}}
	}
	return docs, nil
}

// BuildChunks fetches (or reuses cached) raw text for id and chunks it.
// If the listing cache from this run's FetchDocumentIDs doesn't have id —
// a resumed run whose process restarted after a previous FetchDocumentIDs —
// it falls back to a direct single-document lookup.
func (s *EOSource) BuildChunks(ctx context.Context, id string) ([]payload.Chunk, error) {
	eo, ok := s.cachedListing(id)
	if !ok {
		fetched, err := s.Client.GetExecutiveOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		eo = fetched
	}

	text, err := s.rawText(ctx, eo)
	if err != nil {
		return nil, err
	}

	doc := eo.ToDocument(text)
	return s.Builder.BuildFromDocument(ctx, doc)
}

func (s *EOSource) cachedListing(id string) (govapi.ExecutiveOrderSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eo, ok := s.listing[id]
	return eo, ok
}

func (s *EOSource) rawText(ctx context.Context, eo govapi.ExecutiveOrderSummary) (string, error) {
	if eo.RawTextURL == "" {
		return eo.Abstract, nil
	}

	s.mu.Lock()
	if s.textCache == nil {
		s.textCache = make(map[string]string)
	}
	if cached, ok := s.textCache[eo.RawTextURL]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	text, err := s.Client.FetchRawText(ctx, eo.RawTextURL)
	if err != nil {
		return eo.Abstract, nil
	}

	s.mu.Lock()
	s.textCache[eo.RawTextURL] = text
	s.mu.Unlock()
	return text, nil
}
