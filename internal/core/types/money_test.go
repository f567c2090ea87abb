package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountFromMoneyRoundsHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want Amount
	}{
		{"135000", 135000},
		{"130949.5", 130950},
		{"121499.4", 121499},
		{"0.5", 1},
		{"-0.5", -1},
	}

	for _, tt := range tests {
		got := NewAmountFromMoney(MustMoney(tt.in))
		assert.Equal(t, tt.want, got, "round %s", tt.in)
	}
}

func TestQuantityUnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Quantity
	}{
		{`2`, 20000},
		{`2.5`, 25000},
		{`"2.5"`, 25000},
		{`0.0001`, 1},
		{`-1.25`, -12500},
		{`1.23456`, 12345}, // extra digits truncated
		{`null`, 0},
	}

	for _, tt := range tests {
		var q Quantity
		require.NoError(t, json.Unmarshal([]byte(tt.in), &q), "input %s", tt.in)
		assert.Equal(t, tt.want, q, "input %s", tt.in)
	}

	var q Quantity
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &q))
}

func TestQuantityMarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewQuantityFromFloat64(2.5))
	require.NoError(t, err)
	assert.Equal(t, "2.5000", string(data))

	data, err = json.Marshal(Quantity(-12500))
	require.NoError(t, err)
	assert.Equal(t, "-1.2500", string(data))
}

func TestQuantityMulAmountTruncates(t *testing.T) {
	// 2.5 x 101 = 252.5 -> 252
	assert.Equal(t, Amount(252), NewQuantityFromFloat64(2.5).MulAmount(101))
	// whole quantities stay exact
	assert.Equal(t, Amount(270000), NewQuantityFromInt(2).MulAmount(135000))
}
