package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Create inserts value. Models registered with the observer plugin publish a
// "created" message once the row is written.
func (p *Postgres) Create(ctx context.Context, value interface{}) error {
	return p.exec(ctx, "create", func(db *gorm.DB) *gorm.DB { return db.Create(value) })
}

// Save updates value, or inserts it when its primary key is zero.
func (p *Postgres) Save(ctx context.Context, value interface{}) error {
	return p.exec(ctx, "save", func(db *gorm.DB) *gorm.DB { return db.Save(value) })
}

// Delete deletes value. Pass a loaded model rather than a bare primary key so the
// published message carries its id.
func (p *Postgres) Delete(ctx context.Context, value interface{}, conditions ...interface{}) error {
	return p.exec(ctx, "delete", func(db *gorm.DB) *gorm.DB { return db.Delete(value, conditions...) })
}

// First loads the first record matching conditions into dest.
func (p *Postgres) First(ctx context.Context, dest interface{}, conditions ...interface{}) error {
	return p.exec(ctx, "first", func(db *gorm.DB) *gorm.DB { return db.First(dest, conditions...) })
}

// Transaction runs fn in a transaction. Callbacks of the installed plugins run inside it,
// so messages are published before the commit.
func (p *Postgres) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	start := time.Now()
	err := p.DB().WithContext(ctx).Transaction(fn)
	p.observeOperation("transaction", "", time.Since(start), err, nil)
	return err
}

func (p *Postgres) exec(ctx context.Context, operation string, fn func(*gorm.DB) *gorm.DB) error {
	start := time.Now()
	result := fn(p.DB().WithContext(ctx))

	table := ""
	if result.Statement != nil {
		table = result.Statement.Table
	}
	p.observeOperation(operation, table, time.Since(start), result.Error, map[string]interface{}{
		"rows_affected": result.RowsAffected,
	})
	return result.Error
}
