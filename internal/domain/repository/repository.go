package repository

import (
	"database/sql"

	"quizmaster/internal/platform/database"
)

// conn picks the transaction when one is in flight. With SQLite there is a
// single connection, so statements issued on db while tx is open would block.
func conn(db *database.DB, tx *sql.Tx) database.DBTX {
	if tx != nil {
		return tx
	}
	return db
}
