package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/folio-backend/internal/domain"
	"github.com/simaogato/folio-backend/internal/usecase/holdings"
)

// memoryLedger is a stateful TransactionRepository. List holds every reader at
// a rendezvous until a second reader arrives or the wait times out, which makes
// two unserialized read-check-write sequences see the same stale ledger.
type memoryLedger struct {
	domain.TransactionRepository

	ledgerLock sync.Mutex

	mu  sync.Mutex
	txs []*domain.Transaction

	rendezvous sync.WaitGroup
}

func newMemoryLedger(readers int, seed ...*domain.Transaction) *memoryLedger {
	l := &memoryLedger{txs: seed}
	l.rendezvous.Add(readers)
	return l
}

func (l *memoryLedger) WithLedgerLock(ctx context.Context, portfolioID uuid.UUID, fn func(ctx context.Context) error) error {
	l.ledgerLock.Lock()
	defer l.ledgerLock.Unlock()
	return fn(ctx)
}

func (l *memoryLedger) List(ctx context.Context, portfolioID uuid.UUID, assetID *uuid.UUID) ([]*domain.Transaction, error) {
	l.mu.Lock()
	out := make([]*domain.Transaction, len(l.txs))
	copy(out, l.txs)
	l.mu.Unlock()

	l.rendezvous.Done()
	arrived := make(chan struct{})
	go func() {
		l.rendezvous.Wait()
		close(arrived)
	}()
	select {
	case <-arrived:
	case <-time.After(100 * time.Millisecond):
	}
	return out, nil
}

func (l *memoryLedger) Create(ctx context.Context, tx *domain.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs = append(l.txs, tx)
	return nil
}

func (l *memoryLedger) snapshot() []domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return NewView(l.txs).All()
}

func TestRecordTransaction_ConcurrentSellsCannotOversell(t *testing.T) {
	f := newLedgerFixture()
	buy := f.tx(domain.TransactionTypeBuy, 5, now.Add(-time.Hour))
	store := newMemoryLedger(2, buy)
	f.service.TransactionRepo = store

	f.expectResolve()
	f.expectWatched(true)
	f.portfolioRepo.On("Touch", mock.Anything, f.portfolio.ID, now).Return(nil)

	// Execute
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.RecordTransaction(context.Background(), f.input(domain.TransactionTypeSell, 5))
		}(i)
	}
	wg.Wait()

	// Assert
	accepted, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case assert.ErrorIs(t, err, domain.ErrOversell):
			rejected++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, rejected)

	ledger := store.snapshot()
	require.Len(t, ledger, 2)
	assert.Equal(t, -1, holdings.FirstOversold(ledger))
	final := holdings.Replay(ledger)
	assert.True(t, final[len(final)-1].Equal(decimal.Zero))
}
