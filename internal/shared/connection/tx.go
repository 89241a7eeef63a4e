package connection

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// GormWithTx returns a gorm handle whose statements run on tx. Services own
// the transaction through database/sql; repositories keep using gorm.
//
// Session only copies the statement when Context is set, so the context
// here is what keeps tx off the shared root handle. Repositories replace it
// through WithContext.
func GormWithTx(db *gorm.DB, tx *sql.Tx) *gorm.DB {
	if tx == nil {
		return db
	}
	txDB := db.Session(&gorm.Session{Context: context.Background(), NewDB: true, SkipDefaultTransaction: true})
	txDB.Statement.ConnPool = tx
	return txDB
}
