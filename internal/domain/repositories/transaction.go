package repositories

import "context"

// TxFn runs with a context that carries the open transaction
type TxFn func(ctx context.Context) error

// TransactionManager groups repository calls into one transaction
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
