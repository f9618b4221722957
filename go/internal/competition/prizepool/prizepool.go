// Package prizepool splits a competition's prize money across the top three
// places. Amounts are exact decimals; only the display strings are floored.
package prizepool

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// DefaultHostMinimum is the guaranteed host contribution used when a
// competition does not configure one.
var DefaultHostMinimum = decimal.NewFromInt(1000)

var (
	firstRevenueShare  = decimal.RequireFromString("0.25")
	secondRevenueShare = decimal.RequireFromString("0.15")
	thirdRevenueShare  = decimal.RequireFromString("0.10")

	firstMinimumShare  = decimal.RequireFromString("0.50")
	secondMinimumShare = decimal.RequireFromString("0.30")
	thirdMinimumShare  = decimal.RequireFromString("0.20")
)

// Breakdown is the prize owed to each ranked position
type Breakdown struct {
	HostMinimum decimal.Decimal `json:"host_minimum"`
	VoteRevenue decimal.Decimal `json:"vote_revenue"`
	FirstPrize  decimal.Decimal `json:"first_prize"`
	SecondPrize decimal.Decimal `json:"second_prize"`
	ThirdPrize  decimal.Decimal `json:"third_prize"`
	Total       decimal.Decimal `json:"total_prize_pool"`

	FirstPrizeFormatted  string `json:"first_prize_formatted"`
	SecondPrizeFormatted string `json:"second_prize_formatted"`
	ThirdPrizeFormatted  string `json:"third_prize_formatted"`
	TotalFormatted       string `json:"total_prize_pool_formatted"`
}

// HostMinimum resolves a configured host minimum, defaulting when absent.
func HostMinimum(configured *decimal.Decimal) decimal.Decimal {
	if configured == nil {
		return DefaultHostMinimum
	}
	return *configured
}

// Calculate distributes voteRevenue and hostMinimum across first, second and
// third place. Negative inputs are treated as zero.
func Calculate(hostMinimum, voteRevenue decimal.Decimal) Breakdown {
	hostMinimum = nonNegative(hostMinimum)
	voteRevenue = nonNegative(voteRevenue)

	first := voteRevenue.Mul(firstRevenueShare).Add(hostMinimum.Mul(firstMinimumShare))
	second := voteRevenue.Mul(secondRevenueShare).Add(hostMinimum.Mul(secondMinimumShare))
	third := voteRevenue.Mul(thirdRevenueShare).Add(hostMinimum.Mul(thirdMinimumShare))
	total := first.Add(second).Add(third)

	return Breakdown{
		HostMinimum:          hostMinimum,
		VoteRevenue:          voteRevenue,
		FirstPrize:           first,
		SecondPrize:          second,
		ThirdPrize:           third,
		Total:                total,
		FirstPrizeFormatted:  FormatCurrency(first),
		SecondPrizeFormatted: FormatCurrency(second),
		ThirdPrizeFormatted:  FormatCurrency(third),
		TotalFormatted:       FormatCurrency(total),
	}
}

// FormatCurrency floors amount to whole dollars and renders it as "$12,345".
func FormatCurrency(amount decimal.Decimal) string {
	return "$" + humanize.Comma(amount.Floor().IntPart())
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
