package analyzer

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/a11yoverlay/types"
)

func TestFallback_Shape(t *testing.T) {
	elements := []types.InteractiveElement{
		{Tag: "button", Text: "Buy now"},
		{Tag: "", Text: ""},
		{Tag: "a", Text: strings.Repeat("é", 60)},
		{Tag: "input", Text: "never used"},
	}

	got := Fallback(elements)

	assert.Equal(t, "generic", got.PageType)
	assert.Equal(t, "Fallback analysis", got.PageSummary)
	require.Len(t, got.Actions, 3)

	assert.Equal(t, "fallback_0", got.Actions[0].ID)
	assert.Equal(t, "Buy now", got.Actions[0].Label)
	assert.Equal(t, "Click button", got.Actions[0].Description)
	assert.Equal(t, 0.7, got.Actions[0].Confidence)

	assert.Equal(t, "Action 1", got.Actions[1].Label)
	assert.Equal(t, "Click element", got.Actions[1].Description)
	assert.Equal(t, 0.6, got.Actions[1].Confidence)

	assert.Equal(t, strings.Repeat("é", 50), got.Actions[2].Label)
	assert.Equal(t, 0.5, got.Actions[2].Confidence)
	assert.Equal(t, 2, got.Actions[2].ElementIndex)
}

func TestFallback_FewerThanThree(t *testing.T) {
	assert.Empty(t, Fallback(nil).Actions)
	assert.Len(t, Fallback([]types.InteractiveElement{{Text: "only"}}).Actions, 1)
}

// 相同输入总是得到相同输出
func TestProperty_FallbackDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("fallback is a pure function of its input", prop.ForAll(
		func(texts []string, tags []string) bool {
			elements := make([]types.InteractiveElement, len(texts))
			for i, text := range texts {
				tag := ""
				if i < len(tags) {
					tag = tags[i]
				}
				elements[i] = types.InteractiveElement{Tag: tag, Text: text}
			}

			a, b := Fallback(elements), Fallback(elements)
			if diff := cmp.Diff(a, b); diff != "" {
				t.Logf("fallback mismatch (-first +second):\n%s", diff)
				return false
			}
			if len(a.Actions) > 3 {
				return false
			}
			for i, act := range a.Actions {
				if act.ElementIndex != i || len([]rune(act.Label)) > 50 || act.Label == "" {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AnyString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
