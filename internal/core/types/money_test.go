package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_String(t *testing.T) {
	tests := []struct {
		name string
		q    Quantity
		want string
	}{
		{"zero", 0, "0.0000"},
		{"whole units", NewQuantityFromFloat64(2), "2.0000"},
		{"fractional", NewQuantityFromFloat64(1.5), "1.5000"},
		{"four decimals", NewQuantityFromInt64Scaled(12345), "1.2345"},
		{"negative", NewQuantityFromFloat64(-0.25), "-0.2500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.String())
		})
	}
}

func TestQuantity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Quantity
	}{
		{"number", `2.5`, NewQuantityFromInt64Scaled(25000)},
		{"string", `"2.5"`, NewQuantityFromInt64Scaled(25000)},
		{"integer", `10`, NewQuantityFromInt64Scaled(100000)},
		{"null", `null`, 0},
		{"extra digits truncated", `1.23456`, NewQuantityFromInt64Scaled(12345)},
		{"negative string", `"-3.75"`, NewQuantityFromInt64Scaled(-37500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tt.input), &q))
			assert.Equal(t, tt.want, q)
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		var q Quantity
		assert.Error(t, json.Unmarshal([]byte(`"abc"`), &q))
	})
}

func TestQuantity_Decimal(t *testing.T) {
	q := NewQuantityFromFloat64(2)
	price := MustMoney("10.00")

	subtotal := price.Mul(q.Decimal())
	assert.True(t, MustMoney("20").Equal(subtotal))
}

func TestMoney_ExactArithmetic(t *testing.T) {
	// 0.1 + 0.2 must be exactly 0.3, not 0.30000000000000004.
	sum := MustMoney("0.1").Add(MustMoney("0.2"))
	assert.True(t, MustMoney("0.3").Equal(sum))
}
