package memory

import (
	"context"
	"sync"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
)

type txKey struct{}

// TxManager runs transactions against a Store one at a time.
// A failed or panicking transaction restores the snapshot taken when it began.
// Nested calls join the outer transaction.
//
// Every transaction copies the whole store, so the memory driver is meant for
// development and tests, not for production traffic.
type TxManager struct {
	store *Store
	mtx   sync.Mutex
}

func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

var _ trm.Manager = (*TxManager)(nil)

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	snap := m.store.snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.store.restore(snap)
			panic(p)
		}
	}()

	err := fn(context.WithValue(ctx, txKey{}, true))
	if err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// DoWithSettings ignores the settings, every transaction is fully serialized anyway
func (m *TxManager) DoWithSettings(ctx context.Context, _ trm.Settings, fn func(ctx context.Context) error) error {
	return m.Do(ctx, fn)
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}
