package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		s    AddressSuggestion
		want string
	}{
		{"display wins", AddressSuggestion{AddressDisplay: "A, City", FormattedAddress: "B", Address: "C"}, "A, City"},
		{"formatted next", AddressSuggestion{FormattedAddress: " B ", Address: "C"}, "B"},
		{"raw address last", AddressSuggestion{AddressDisplay: "  ", Address: "C"}, "C"},
		{"nothing", AddressSuggestion{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.Display())
		})
	}
}

func TestLocality(t *testing.T) {
	assert.Equal(t, "Springfield, OR 97477", AddressSuggestion{City: "Springfield", State: "OR", ZipCode: "97477"}.Locality())
	assert.Equal(t, "97477", AddressSuggestion{ZipCode: "97477"}.Locality())
	assert.Equal(t, "", AddressSuggestion{}.Locality())
}

func TestNumberDecoding(t *testing.T) {
	var v struct {
		A Number  `json:"a"`
		B Number  `json:"b"`
		C Number  `json:"c"`
		D Number  `json:"d"`
		E *Number `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":1.5,"b":"250000.75","c":null,"d":"n/a"}`), &v))
	assert.Equal(t, Number(1.5), v.A)
	assert.Equal(t, Number(250000.75), v.B)
	assert.Equal(t, Number(0), v.C)
	assert.Equal(t, Number(0), v.D)
	assert.Nil(t, v.E)
}

func TestProgressPercentClamps(t *testing.T) {
	n := func(f float64) *Number { v := Number(f); return &v }
	assert.Equal(t, 0.0, ProcessingStatus{}.ProgressPercent())
	assert.Equal(t, 0.0, ProcessingStatus{Progress: n(-5)}.ProgressPercent())
	assert.Equal(t, 100.0, ProcessingStatus{Progress: n(140)}.ProgressPercent())
	assert.Equal(t, 10.0, ProcessingStatus{Progress: n(10)}.ProgressPercent())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusNotFound.Terminal())
}
