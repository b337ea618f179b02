package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{3.2, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampConfidence(tt.in))
	}
}

func TestPageAnalysis_FindAction(t *testing.T) {
	t.Parallel()

	p := &PageAnalysis{Actions: []Action{{ID: "a"}, {ID: "b", Label: "Second"}}}
	a, ok := p.FindAction("b")
	require.True(t, ok)
	assert.Equal(t, "Second", a.Label)

	_, ok = p.FindAction("zzz")
	assert.False(t, ok)

	var nilPage *PageAnalysis
	_, ok = nilPage.FindAction("a")
	assert.False(t, ok)
}

func TestCommandMatch_NullSelection(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(CommandMatch{ClarificationNeeded: true})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"selected_action_id":null`)
}

func TestInteractiveElement_PartialBounds(t *testing.T) {
	t.Parallel()

	var el InteractiveElement
	require.NoError(t, json.Unmarshal([]byte(`{"tag":"a","text":"Home","bounds":{"x":3,"y":4}}`), &el))
	require.NotNil(t, el.Bounds)
	assert.Equal(t, 3.0, el.Bounds.X)
	assert.Zero(t, el.Bounds.Width)
}
