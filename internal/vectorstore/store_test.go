package vectorstore

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointID_PassesThroughValidUUID(t *testing.T) {
	id := uuid.New().String()
	assert.Equal(t, id, pointID(id))
}

func TestPointID_IsDeterministicForNonUUIDInput(t *testing.T) {
	a := pointID("scotus:12345:chunk-0")
	b := pointID("scotus:12345:chunk-0")
	assert.Equal(t, a, b)
	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestPointID_DiffersForDifferentInput(t *testing.T) {
	a := pointID("scotus:1:chunk-0")
	b := pointID("scotus:2:chunk-0")
	assert.NotEqual(t, a, b)
}

func TestBuildPayload_PreservesOriginalIDWhenRemapped(t *testing.T) {
	id := "scotus:12345:chunk-0"
	uid := pointID(id)
	payload := buildPayload(id, uid, map[string]any{"section_label": "Majority Opinion"})
	assert.Equal(t, id, payload[OriginalIDField])
	assert.Equal(t, "Majority Opinion", payload["section_label"])
}

func TestBuildPayload_OmitsOriginalIDWhenIDIsAlreadyUUID(t *testing.T) {
	id := uuid.New().String()
	payload := buildPayload(id, id, map[string]any{"k": "v"})
	_, ok := payload[OriginalIDField]
	assert.False(t, ok, "expected no %q field when ID is already a UUID", OriginalIDField)
}
