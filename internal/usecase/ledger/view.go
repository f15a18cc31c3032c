package ledger

import (
	"sort"

	"github.com/google/uuid"

	"github.com/simaogato/folio-backend/internal/domain"
)

// View is a read-only accessor over a snapshot of one portfolio's transactions,
// ordered by transaction date. Entries sharing a date keep their input order.
type View struct {
	txs []domain.Transaction
}

// NewView copies and sorts the given transactions
// Nil entries are skipped.
func NewView(txs []*domain.Transaction) *View {
	sorted := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx != nil {
			sorted = append(sorted, *tx)
		}
	}
	sortByDate(sorted)
	return &View{txs: sorted}
}

// Len returns the number of transactions in the view
func (v *View) Len() int {
	return len(v.txs)
}

// All returns every transaction, oldest first
func (v *View) All() []domain.Transaction {
	out := make([]domain.Transaction, len(v.txs))
	copy(out, v.txs)
	return out
}

// ForAsset returns the transactions of one asset, oldest first
func (v *View) ForAsset(assetID uuid.UUID) []domain.Transaction {
	var out []domain.Transaction
	for _, tx := range v.txs {
		if tx.AssetID == assetID {
			out = append(out, tx)
		}
	}
	return out
}

// ByAsset groups the transactions per asset, each group oldest first
func (v *View) ByAsset() map[uuid.UUID][]domain.Transaction {
	groups := make(map[uuid.UUID][]domain.Transaction)
	for _, tx := range v.txs {
		groups[tx.AssetID] = append(groups[tx.AssetID], tx)
	}
	return groups
}

func sortByDate(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
}
