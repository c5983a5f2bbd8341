// Package vectorstore implements L8: the Qdrant-backed point store for
// chunk embeddings. Point IDs are deterministic UUIDv5 values derived from
// the caller's own chunk ID (Qdrant only accepts UUIDs or positive
// integers as point IDs); the caller's original ID is preserved in the
// payload so lookups and search results can return it unchanged.
package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"governmentreporter/internal/config"
	"governmentreporter/internal/errs"
)

// OriginalIDField is the payload key under which the caller's own chunk ID
// is preserved when it isn't itself a valid UUID.
const OriginalIDField = "original_id"

// Store is a single Qdrant collection of fixed-dimension vectors.
type Store struct {
	client     *qdrant.Client
	collection string
	dimension  int
	metric     string
}

// Point is one vector plus its payload, for batch upsert.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Result is a single nearest-neighbor hit.
type Result struct {
	ID       string
	Score    float64
	Payload  map[string]any
}

// CollectionInfo summarizes a collection's configuration and size.
type CollectionInfo struct {
	Name          string
	VectorCount   uint64
	Dimension     int
	Distance      string
}

// New connects to Qdrant and ensures the named collection exists with the
// given vector dimension and distance metric (one of cosine, l2/euclidean,
// ip/dot, manhattan — defaulting to cosine).
func New(ctx context.Context, qc config.QdrantConfig, collection string, dimension int, metric string) (*Store, error) {
	if collection == "" {
		return nil, errs.New(errs.KindDomainViolation, fmt.Errorf("collection name is required"))
	}
	if dimension <= 0 {
		return nil, errs.New(errs.KindDomainViolation, fmt.Errorf("vector dimension must be > 0"))
	}

	qcfg := &qdrant.Config{Host: qc.Host, Port: qc.GRPCPort}
	if qc.APIKey != "" {
		qcfg.APIKey = qc.APIKey
	}
	client, err := qdrant.NewClient(qcfg)
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	s := &Store{
		client:     client,
		collection: collection,
		dimension:  dimension,
		metric:     strings.ToLower(strings.TrimSpace(metric)),
	}
	if err := s.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure collection %s: %w", collection, err)
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}
	if exists {
		return nil
	}

	var distance qdrant.Distance
	switch s.metric {
	case "l2", "euclidean":
		distance = qdrant.Distance_Euclid
	case "ip", "dot":
		distance = qdrant.Distance_Dot
	case "manhattan":
		distance = qdrant.Distance_Manhattan
	default:
		distance = qdrant.Distance_Cosine
	}

	return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: distance,
		}),
	})
}

// pointID maps a caller-supplied chunk ID to a Qdrant point ID, returning
// the deterministic UUIDv5 for any non-UUID input.
func pointID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(id)).String()
}

func buildPayload(id, uuidStr string, payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	if uuidStr != id {
		out[OriginalIDField] = id
	}
	return out
}

// Upsert writes a single chunk vector plus payload.
func (s *Store) Upsert(ctx context.Context, id string, vector []float32, payload map[string]any) error {
	return s.UpsertBatch(ctx, []Point{{ID: id, Vector: vector, Payload: payload}})
}

// UpsertBatch writes many points in a single round trip. Every vector must
// match the collection's configured dimension.
func (s *Store) UpsertBatch(ctx context.Context, points []Point) error {
	qpoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return errs.New(errs.KindDomainViolation, fmt.Errorf("point %s has vector dimension %d, want %d", p.ID, len(p.Vector), s.dimension))
		}
		uuidStr := pointID(p.ID)
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		qpoints = append(qpoints, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuidStr),
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: qdrant.NewValueMap(buildPayload(p.ID, uuidStr, p.Payload)),
		})
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         qpoints,
	})
	return err
}

// Delete removes the point for the given caller-supplied ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(pointID(id))),
	})
	return err
}

// Exists reports whether a point for the given caller-supplied ID is
// already stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	pt, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return pt != nil, nil
}

// GetByID fetches a single point's payload by caller-supplied ID, or nil
// if no such point exists.
func (s *Store) GetByID(ctx context.Context, id string) (*Result, error) {
	uid := pointID(id)
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(uid)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}
	return hitToResult(uid, points[0].Payload, 0), nil
}

// SimilaritySearch returns the k nearest points to vector, optionally
// constrained to payload fields matching filter (an exact-match AND
// across the provided keys whose values are strings; entries with any
// other value type are ignored).
func (s *Store) SimilaritySearch(ctx context.Context, vector []float32, k int, filter map[string]any) ([]Result, error) {
	if len(vector) != s.dimension {
		return nil, errs.New(errs.KindDomainViolation, fmt.Errorf("query vector has dimension %d, want %d", len(vector), s.dimension))
	}
	if k <= 0 {
		k = 10
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)

	var queryFilter *qdrant.Filter
	if len(filter) > 0 {
		must := make([]*qdrant.Condition, 0, len(filter))
		for k, v := range filter {
			if s, ok := v.(string); ok {
				must = append(must, qdrant.NewMatch(k, s))
			}
		}
		if len(must) > 0 {
			queryFilter = &qdrant.Filter{Must: must}
		}
	}

	limit := uint64(k)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		Filter:         queryFilter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		uuidStr := hit.Id.GetUuid()
		if uuidStr == "" {
			uuidStr = hit.Id.String()
		}
		results = append(results, *hitToResult(uuidStr, hit.Payload, float64(hit.Score)))
	}
	return results, nil
}

func hitToResult(uuidStr string, payload map[string]*qdrant.Value, score float64) *Result {
	decoded := make(map[string]any, len(payload))
	var originalID string
	for k, v := range payload {
		dv := decodeValue(v)
		if k == OriginalIDField {
			if s, ok := dv.(string); ok {
				originalID = s
			}
			continue
		}
		decoded[k] = dv
	}
	id := originalID
	if id == "" {
		id = uuidStr
	}
	return &Result{ID: id, Score: score, Payload: decoded}
}

// decodeValue unwraps a Qdrant payload value by its oneof kind rather than
// by zero-value sniffing, since a legitimately-zero integer/double/bool
// payload field must decode to that value, not to nil.
func decodeValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = decodeValue(it)
		}
		return out
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for k, fv := range fields {
			out[k] = decodeValue(fv)
		}
		return out
	case *qdrant.Value_NullValue:
		return nil
	default:
		return nil
	}
}

// CollectionInfo reports the collection's configured vector dimension,
// distance metric, and current point count, for the MCP server's
// list_collections tool.
func (s *Store) CollectionInfo(ctx context.Context) (CollectionInfo, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return CollectionInfo{}, err
	}
	return CollectionInfo{
		Name:        s.collection,
		VectorCount: info.GetPointsCount(),
		Dimension:   s.dimension,
		Distance:    s.metric,
	}, nil
}

// ListCollections returns the names of every collection visible to this
// client's Qdrant instance.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	return s.client.ListCollections(ctx)
}

// Dimension reports the fixed vector width this collection was created
// with.
func (s *Store) Dimension() int { return s.dimension }

// Close releases the underlying gRPC connection.
func (s *Store) Close() error { return s.client.Close() }
