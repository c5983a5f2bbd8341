package ingest

import (
	"context"
	"fmt"
	"strconv"

	"governmentreporter/internal/errs"
	"governmentreporter/internal/govapi"
	"governmentreporter/internal/payload"
)

// ScotusSource discovers and builds chunk payloads for Supreme Court
// opinions via CourtListener.
type ScotusSource struct {
	Client     *govapi.CourtListenerClient
	Builder    *payload.Builder
	SinceDate  string
	EndDate    string
	MaxResults int
}

// FetchDocumentIDs lists every SCOTUS opinion filed in [SinceDate, EndDate].
func (s *ScotusSource) FetchDocumentIDs(ctx context.Context) ([]SourceDocument, error) {
	ids, err := s.Client.ListSCOTUSOpinionIDs(ctx, s.SinceDate, s.EndDate, s.MaxResults)
	if err != nil {
		return nil, err
	}
	docs := make([]SourceDocument, len(ids))
	for i, id := range ids {
		docs[i] = SourceDocument{ID: id}
	}
	return docs, nil
}

// BuildChunks validates the opinion is actually a Supreme Court opinion
// (defending against a stale index pointing at a lower-court ID reused
// elsewhere), then fetches, normalizes, and chunks it.
func (s *ScotusSource) BuildChunks(ctx context.Context, id string) ([]payload.Chunk, error) {
	opinionID, err := strconv.Atoi(id)
	if err != nil {
		return nil, errs.New(errs.KindDomainViolation, fmt.Errorf("invalid opinion id %q: %w", id, err))
	}

	isScotus, cluster, err := s.Client.ValidateCourt(ctx, opinionID)
	if err != nil {
		return nil, err
	}
	if !isScotus {
		return nil, errs.New(errs.KindDomainViolation, fmt.Errorf("opinion %d belongs to court %q (not scotus)", opinionID, cluster.Docket.CourtID))
	}

	op, err := s.Client.GetOpinion(ctx, opinionID)
	if err != nil {
		return nil, err
	}

	doc := op.ToDocument(cluster)
	return s.Builder.BuildFromDocument(ctx, doc)
}
