package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Amount
		wantErr bool
	}{
		{"whole number", "100", 10000, false},
		{"two decimals", "99.99", 9999, false},
		{"one decimal", "0.5", 50, false},
		{"negative", "-100.00", -10000, false},
		{"surrounding spaces", " 12.30 ", 1230, false},
		{"three decimals", "1.005", 0, true},
		{"not a number", "abc", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "100.00", Amount(10000).String())
	assert.Equal(t, "99.99", Amount(9999).String())
	assert.Equal(t, "-0.05", Amount(-5).String())
	assert.Equal(t, "0.00", Amount(0).String())
}

func TestAmount_Grouped(t *testing.T) {
	assert.Equal(t, "1,234.50", Amount(123450).Grouped())
	assert.Equal(t, "999.00", Amount(99900).Grouped())
	assert.Equal(t, "1,000,000.00", Amount(100000000).Grouped())
	assert.Equal(t, "-12,345.67", Amount(-1234567).Grouped())
}

func TestAmount_JSON(t *testing.T) {
	var payload struct {
		Amount *Amount `json:"amount"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"amount": 99.99}`), &payload))
	require.NotNil(t, payload.Amount)
	assert.Equal(t, Amount(9999), *payload.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount": "50.00"}`), &payload))
	assert.Equal(t, Amount(5000), *payload.Amount)

	payload.Amount = nil
	require.NoError(t, json.Unmarshal([]byte(`{"amount": null}`), &payload))
	assert.Nil(t, payload.Amount)

	err := json.Unmarshal([]byte(`{"amount": 1.001}`), &payload)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	out, err := json.Marshal(map[string]Amount{"total": -10000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": -100.00}`, string(out))
}

func TestAmount_ExactComparison(t *testing.T) {
	a, err := Parse("0.1")
	require.NoError(t, err)
	b, err := Parse("0.2")
	require.NoError(t, err)
	c, err := Parse("0.3")
	require.NoError(t, err)

	assert.Equal(t, c, a+b)
	assert.Equal(t, Amount(60), Sum(a, b, c))
}
