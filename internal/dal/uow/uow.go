package uow

import (
	"context"
	"errors"

	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/icompletedorderrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/imenuitemrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/itablerepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	completedrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/completedorder/postgres"
	menurepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/menuitem/postgres"
	orderrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/orderitem/postgres"
	tablerepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/table/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type unitOfWork struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
	conn postgres.GenericConn
}

// NewUnitOfWork returns a unit of work that runs on the pool until Begin.
func NewUnitOfWork(client *postgres.Client) iuow.UnitOfWork {
	return &unitOfWork{
		pool: client.Pool(),
		conn: client.Pool(),
	}
}

// NewFactory returns a factory bound to client.
func NewFactory(client *postgres.Client) iuow.Factory {
	return func() iuow.UnitOfWork {
		return NewUnitOfWork(client)
	}
}

func (u *unitOfWork) TableRepository() itablerepo.ITableRepository {
	return tablerepo.NewPostgresTableRepository(u.conn)
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return orderrepo.NewPostgresOrderRepository(u.conn)
}

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return orderitemrepo.NewPostgresOrderItemRepository(u.conn)
}

func (u *unitOfWork) CompletedOrderRepository() icompletedorderrepo.ICompletedOrderRepository {
	return completedrepo.NewPostgresCompletedOrderRepository(u.conn)
}

func (u *unitOfWork) MenuItemRepository() imenuitemrepo.IMenuItemRepository {
	return menurepo.NewPostgresMenuItemRepository(u.conn)
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errors.New("transaction already started")
	}
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}

	u.tx = tx
	u.conn = tx

	return nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Commit(ctx)
	u.reset()

	return err
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback(ctx)
	u.reset()
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}

	return err
}

func (u *unitOfWork) reset() {
	u.tx = nil
	u.conn = u.pool
}
