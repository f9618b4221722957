package prizepool

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculate(t *testing.T) {
	b := Calculate(d("1000"), d("2000"))

	assert.True(t, b.FirstPrize.Equal(d("1000")), b.FirstPrize.String())
	assert.True(t, b.SecondPrize.Equal(d("600")), b.SecondPrize.String())
	assert.True(t, b.ThirdPrize.Equal(d("400")), b.ThirdPrize.String())
	assert.True(t, b.Total.Equal(d("2000")), b.Total.String())
	assert.Equal(t, "$1,000", b.FirstPrizeFormatted)
	assert.Equal(t, "$600", b.SecondPrizeFormatted)
	assert.Equal(t, "$400", b.ThirdPrizeFormatted)
	assert.Equal(t, "$2,000", b.TotalFormatted)
}

func TestCalculateTotalIsExactSum(t *testing.T) {
	inputs := [][2]string{
		{"1000", "0"},
		{"0", "0.1"},
		{"333.33", "777.77"},
		{"1000", "123456.789"},
		{"0.01", "0.03"},
	}
	for _, in := range inputs {
		b := Calculate(d(in[0]), d(in[1]))
		sum := b.FirstPrize.Add(b.SecondPrize).Add(b.ThirdPrize)
		assert.True(t, b.Total.Equal(sum), "min=%s revenue=%s", in[0], in[1])
	}
}

func TestCalculateMonotonic(t *testing.T) {
	steps := []string{"0", "0.5", "10", "999.99", "1000", "25000", "1000000"}
	for i := 1; i < len(steps); i++ {
		lo, hi := d(steps[i-1]), d(steps[i])

		byRevenue := [2]Breakdown{Calculate(d("1000"), lo), Calculate(d("1000"), hi)}
		byMinimum := [2]Breakdown{Calculate(lo, d("500")), Calculate(hi, d("500"))}

		for _, pair := range [][2]Breakdown{byRevenue, byMinimum} {
			assert.True(t, pair[1].FirstPrize.GreaterThanOrEqual(pair[0].FirstPrize))
			assert.True(t, pair[1].SecondPrize.GreaterThanOrEqual(pair[0].SecondPrize))
			assert.True(t, pair[1].ThirdPrize.GreaterThanOrEqual(pair[0].ThirdPrize))
			assert.True(t, pair[1].Total.GreaterThanOrEqual(pair[0].Total))
		}
	}
}

func TestCalculateNegativeInputsAreZero(t *testing.T) {
	b := Calculate(d("-50"), d("-1"))
	assert.True(t, b.Total.IsZero())
	assert.True(t, b.HostMinimum.IsZero())
	assert.True(t, b.VoteRevenue.IsZero())
	assert.Equal(t, "$0", b.TotalFormatted)
}

func TestHostMinimum(t *testing.T) {
	assert.True(t, HostMinimum(nil).Equal(d("1000")))

	configured := d("2500")
	assert.True(t, HostMinimum(&configured).Equal(configured))
}

func TestFormatCurrency(t *testing.T) {
	tests := map[string]string{
		"0":          "$0",
		"999.99":     "$999",
		"1000":       "$1,000",
		"1234567.89": "$1,234,567",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatCurrency(d(in)), in)
	}
}

func TestForRank(t *testing.T) {
	b := Calculate(d("1000"), d("2000"))

	first := ForRank(1, b)
	require.NotNil(t, first)
	assert.True(t, first.Amount.Equal(b.FirstPrize))
	assert.Equal(t, "1st Place", first.Label)
	assert.Equal(t, "$1,000", first.Formatted)

	third := ForRank(3, b)
	require.NotNil(t, third)
	assert.Equal(t, 3, third.Position)
	assert.True(t, third.Amount.Equal(b.ThirdPrize))

	assert.Nil(t, ForRank(4, b))
	assert.Nil(t, ForRank(0, b))
	assert.Nil(t, ForRank(-1, b))
}
