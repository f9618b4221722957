// Package revenue reduces paid votes to the prize-eligible revenue figure.
package revenue

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/votearena/go/internal/models"
)

// PrizeShare is the fraction of gross vote purchases allocated to prizes.
var PrizeShare = decimal.RequireFromString("0.5")

// Sum returns the prize-eligible revenue of votes. Negative and missing
// amounts count as zero.
func Sum(votes []models.Vote) decimal.Decimal {
	gross := decimal.Zero
	for _, v := range votes {
		gross = gross.Add(v.AmountPaid.NonNegative())
	}
	return gross.Mul(PrizeShare)
}

// Aggregator keeps a running revenue total and the set of vote IDs already
// counted. It is not safe for concurrent use; the owning view serialises
// access.
type Aggregator struct {
	total decimal.Decimal
	seen  map[uuid.UUID]struct{}
	count int
}

// NewAggregator seeds an aggregator from an initial batch of votes.
func NewAggregator(votes []models.Vote) *Aggregator {
	a := &Aggregator{
		total: decimal.Zero,
		seen:  make(map[uuid.UUID]struct{}, len(votes)),
	}
	for _, v := range votes {
		a.Apply(v)
	}
	return a
}

// Apply adds a single vote. It returns false if the vote ID was already
// counted, in which case the total is unchanged.
func (a *Aggregator) Apply(v models.Vote) bool {
	if v.ID != uuid.Nil {
		if _, dup := a.seen[v.ID]; dup {
			return false
		}
		a.seen[v.ID] = struct{}{}
	}
	a.total = a.total.Add(v.AmountPaid.NonNegative().Mul(PrizeShare))
	a.count++
	return true
}

// Total returns the prize-eligible revenue counted so far.
func (a *Aggregator) Total() decimal.Decimal {
	return a.total
}

// Count returns the number of votes counted, including votes without an ID.
func (a *Aggregator) Count() int {
	return a.count
}
