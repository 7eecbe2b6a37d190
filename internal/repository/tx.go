package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// transaction runs fn in a database transaction, serializable on PostgreSQL
// and MySQL. SQLite serializes writers on its own.
func transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	switch db.Dialector.Name() {
	case "postgres", "mysql":
		return db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: sql.LevelSerializable})
	default:
		return db.WithContext(ctx).Transaction(fn)
	}
}
