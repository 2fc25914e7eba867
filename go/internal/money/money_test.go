package money

import (
	"encoding/json"
	"math"
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
		{name: "whole units", input: "25000", want: 2500000},
		{name: "two decimals", input: "199.50", want: 19950},
		{name: "one decimal", input: "0.5", want: 50},
		{name: "surrounding spaces", input: " 10 ", want: 1000},
		{name: "negative", input: "-3", want: -300},
		{name: "sub-cent precision", input: "1.005", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "overflow", input: "1e30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmount_JSON(t *testing.T) {
	var payload struct {
		Bid Amount `json:"bid"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"bid": 25000}`), &payload))
	assert.Equal(t, FromUnits(25000), payload.Bid)

	require.NoError(t, json.Unmarshal([]byte(`{"bid": "12.25"}`), &payload))
	assert.Equal(t, Amount(1225), payload.Bid)

	assert.Error(t, json.Unmarshal([]byte(`{"bid": "twelve"}`), &payload))

	out, err := json.Marshal(struct {
		Price Amount `json:"price"`
	}{Price: FromUnits(650000)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price": 650000}`, string(out))

	out, err = json.Marshal(Amount(1250))
	require.NoError(t, err)
	assert.Equal(t, "12.5", string(out))
}

func TestAmount_Scan(t *testing.T) {
	var a Amount

	require.NoError(t, a.Scan([]byte("650000.00")))
	assert.Equal(t, FromUnits(650000), a)

	require.NoError(t, a.Scan("20000.50"))
	assert.Equal(t, Amount(2000050), a)

	require.NoError(t, a.Scan(int64(7)))
	assert.Equal(t, FromUnits(7), a)

	require.NoError(t, a.Scan(float64(12.34)))
	assert.Equal(t, Amount(1234), a)

	assert.Error(t, a.Scan(true))

	a = FromUnits(3)
	assert.ErrorIs(t, a.Scan(int64(math.MaxInt64)), ErrInvalid)
	assert.ErrorIs(t, a.Scan(int64(math.MinInt64)), ErrInvalid)
	assert.Equal(t, FromUnits(3), a)

	v, err := FromUnits(25000).Value()
	require.NoError(t, err)
	assert.Equal(t, "25000.00", v)
}

func TestFromUnits_Overflow(t *testing.T) {
	assert.Equal(t, Amount(math.MaxInt64/100*100), FromUnits(math.MaxInt64/100))
	assert.Panics(t, func() { FromUnits(math.MaxInt64/100 + 1) })
	assert.Panics(t, func() { FromUnits(math.MinInt64) })
}

func TestMin(t *testing.T) {
	assert.Equal(t, Amount(5), Min(5, 9))
	assert.Equal(t, Amount(5), Min(9, 5))
}
