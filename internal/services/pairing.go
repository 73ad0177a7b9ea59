package services

import "github.com/pocketledger/backend/internal/models"

// PairResolver decides which row of a transfer group is the source leg and which is
// the destination. Implementations may assume rows is non-empty.
type PairResolver interface {
	Resolve(rows []models.Transaction) (models.TransferPair, bool)
}

// HeuristicPairResolver labels the first row with expenses as the source and the first
// other row with income as the destination. When either is missing it falls back to
// rows[0] and rows[len-1]. The boolean result is false whenever the group does not
// have exactly two rows or the fallback was needed.
type HeuristicPairResolver struct{}

func (HeuristicPairResolver) Resolve(rows []models.Transaction) (models.TransferPair, bool) {
	clean := len(rows) == 2

	src := -1
	for i := range rows {
		if rows[i].Expenses.IsPositive() {
			src = i
			break
		}
	}
	if src < 0 {
		src = 0
		clean = false
	}

	dst := -1
	for i := range rows {
		if i != src && rows[i].Income.IsPositive() {
			dst = i
			break
		}
	}
	if dst < 0 {
		dst = len(rows) - 1
		clean = false
	}

	return models.TransferPair{Source: rows[src], Destination: rows[dst]}, clean
}
