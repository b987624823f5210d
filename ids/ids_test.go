package ids

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdsAreUnique(t *testing.T) {
	a := NewDepId()
	b := NewDepId()
	assert.NotEqual(t, a.String(), b.String())
}

func TestResourceIdRoundTripsThroughJSON(t *testing.T) {
	rid := NewResourceId()

	b, err := json.Marshal(rid)
	require.NoError(t, err)

	var got ResourceId
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, rid.String(), got.String())
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseDepId("not-a-uuid")
	assert.Error(t, err)
}

func TestZeroValueIsZero(t *testing.T) {
	var d DepId
	assert.True(t, d.IsZero())
	assert.False(t, NewDepId().IsZero())
}
