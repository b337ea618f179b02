package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseElements(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantLen      int
		wantRepaired bool
		wantErr      bool
	}{
		{"strict json", `[{"tag":"button","text":"Go","selector":"#go","bounds":{"x":1,"y":2}}]`, 1, false, false},
		{"empty string", "", 0, false, false},
		{"null", "null", 0, false, false},
		{"single quoted", `[{'tag':'a','text':'Home','selector':'a.home'}]`, 1, true, false},
		{"apostrophe breaks repair", `[{'tag':'a','text':'Don't click'}]`, 0, false, true},
		{"garbage", `not json at all`, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, repaired, err := ParseElements(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.wantRepaired, repaired)
		})
	}
}

func TestParseElements_Fields(t *testing.T) {
	got, _, err := ParseElements(`[{'tag':'input','text':'','type':'search','selector':'#q','placeholder':'Search'}]`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "input", got[0].Tag)
	assert.Equal(t, "search", got[0].Type)
	assert.Equal(t, "Search", got[0].Placeholder)
	assert.Nil(t, got[0].Bounds)
}

func TestRepairSingleQuotedJSON(t *testing.T) {
	assert.Equal(t, `{"a":"b"}`, RepairSingleQuotedJSON(`{'a':'b'}`))
}
