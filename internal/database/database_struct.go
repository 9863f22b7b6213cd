package database

import (
	"context"

	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) conn(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

// Transaction выполняет fn в транзакции; fn получает Database поверх tx
func (d *Database) Transaction(ctx context.Context, fn func(tx *Database) error) error {
	return d.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Database{db: tx})
	})
}
