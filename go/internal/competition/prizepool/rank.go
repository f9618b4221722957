package prizepool

import "github.com/shopspring/decimal"

// PrizeInfo describes the prize attached to a single leaderboard position
type PrizeInfo struct {
	Position  int             `json:"position"`
	Label     string          `json:"label"`
	Amount    decimal.Decimal `json:"amount"`
	Formatted string          `json:"formatted"`
}

// ForRank returns the prize for rank 1, 2 or 3 and nil for any other rank.
func ForRank(rank int, b Breakdown) *PrizeInfo {
	var (
		label  string
		amount decimal.Decimal
	)
	switch rank {
	case 1:
		label, amount = "1st Place", b.FirstPrize
	case 2:
		label, amount = "2nd Place", b.SecondPrize
	case 3:
		label, amount = "3rd Place", b.ThirdPrize
	default:
		return nil
	}
	return &PrizeInfo{
		Position:  rank,
		Label:     label,
		Amount:    amount,
		Formatted: FormatCurrency(amount),
	}
}
