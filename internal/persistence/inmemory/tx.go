package inmemory

import "context"

// TxRunner serializes write sequences with a coarse lock. The mongo backend
// uses real transactions; here mutual exclusion is enough to keep a join
// from racing past the capacity check.
type TxRunner struct {
	store *Store
}

func (t *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()
	return fn(ctx)
}
