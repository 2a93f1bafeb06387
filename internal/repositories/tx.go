package repositories

import "database/sql"

// Tx is the transaction handle the service layer drives: the executor
// surface plus commit/rollback. *sql.Tx satisfies it.
type Tx interface {
	SQLExecutor
	Commit() error
	Rollback() error
}

// TxBeginner opens transactions for service units of work.
type TxBeginner interface {
	Begin() (Tx, error)
}

type sqlTxBeginner struct {
	db *sql.DB
}

// NewTxBeginner adapts *sql.DB to TxBeginner.
func NewTxBeginner(db *sql.DB) TxBeginner {
	return sqlTxBeginner{db: db}
}

func (b sqlTxBeginner) Begin() (Tx, error) {
	tx, err := b.db.Begin()
	if err != nil {
		return nil, err
	}
	return tx, nil
}
