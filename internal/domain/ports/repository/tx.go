package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside one store transaction. The concrete tx
// handle is infra-defined (pgx.Tx for Postgres); repositories accept a nil tx
// as the non-transactional path.
//
// fn returning an error, or ctx ending before commit, rolls everything back.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
