package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tanvo/fraudgate/internal/usecase"
)

// pgxTxFrom unwraps the pgx transaction from a usecase.Transaction handle.
func pgxTxFrom(tx usecase.Transaction) (pgx.Tx, error) {
	wrapper, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("unexpected transaction type %T", tx)
	}

	return wrapper.PgxTx(), nil
}
