package edisync

import (
	"context"

	"github.com/erp/edisync/internal/domain/catalog"
	"github.com/erp/edisync/internal/domain/edi"
	"github.com/erp/edisync/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories a sync action touches.
// Every write made through the repositories handed to fn (order status, picking
// confirmation, audit log entries, the watermark) commits together or not at all.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	// ActionRepo returns the sync action repository scoped to the current transaction
	ActionRepo() edi.SyncActionRepository
	// LogRepo returns the audit log repository scoped to the current transaction
	LogRepo() edi.LogRepository
	// OrderRepo returns the sales order repository scoped to the current transaction
	OrderRepo() trade.SalesOrderRepository
	// PickingRepo returns the picking repository scoped to the current transaction
	PickingRepo() trade.PickingRepository
	// CategoryRepo returns the category repository scoped to the current transaction
	CategoryRepo() catalog.CategoryRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// Writes made before a failure stay visible, so it only suits tests and tooling.
type NoOpTransactionScope struct {
	actionRepo   edi.SyncActionRepository
	logRepo      edi.LogRepository
	orderRepo    trade.SalesOrderRepository
	pickingRepo  trade.PickingRepository
	categoryRepo catalog.CategoryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	actionRepo edi.SyncActionRepository,
	logRepo edi.LogRepository,
	orderRepo trade.SalesOrderRepository,
	pickingRepo trade.PickingRepository,
	categoryRepo catalog.CategoryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		actionRepo:   actionRepo,
		logRepo:      logRepo,
		orderRepo:    orderRepo,
		pickingRepo:  pickingRepo,
		categoryRepo: categoryRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ActionRepo returns the sync action repository.
func (s *NoOpTransactionScope) ActionRepo() edi.SyncActionRepository { return s.actionRepo }

// LogRepo returns the audit log repository.
func (s *NoOpTransactionScope) LogRepo() edi.LogRepository { return s.logRepo }

// OrderRepo returns the sales order repository.
func (s *NoOpTransactionScope) OrderRepo() trade.SalesOrderRepository { return s.orderRepo }

// PickingRepo returns the picking repository.
func (s *NoOpTransactionScope) PickingRepo() trade.PickingRepository { return s.pickingRepo }

// CategoryRepo returns the category repository.
func (s *NoOpTransactionScope) CategoryRepo() catalog.CategoryRepository { return s.categoryRepo }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
