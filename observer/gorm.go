package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// GormPlugin publishes lifecycle events for the models registered in a Table.
// Register it with db.Use. Failed publishes are logged by the observers and never
// reach db.Error.
type GormPlugin struct {
	table *Table
}

// NewGormPlugin creates a plugin serving table.
func NewGormPlugin(table *Table) *GormPlugin {
	return &GormPlugin{table: table}
}

// Name implements gorm.Plugin.
func (p *GormPlugin) Name() string {
	return "events:observer"
}

// Initialize implements gorm.Plugin.
func (p *GormPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:create").Register("events:after_create", p.after(EventCreated)); err != nil {
		return fmt.Errorf("register create callback: %w", err)
	}
	if err := db.Callback().Update().After("gorm:update").Register("events:after_update", p.after(EventUpdated)); err != nil {
		return fmt.Errorf("register update callback: %w", err)
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("events:after_delete", p.after(EventDeleted)); err != nil {
		return fmt.Errorf("register delete callback: %w", err)
	}
	return nil
}

func (p *GormPlugin) after(event string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Error != nil || db.Statement.Schema == nil {
			return
		}

		observers := p.observers(db.Statement.Schema)
		if len(observers) == 0 {
			return
		}

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		for _, entity := range entities(ctx, db, db.Dialector.Name()) {
			for _, o := range observers {
				o.Notify(ctx, event, entity)
			}
		}
	}
}

// observers looks the model up by struct name first and table name second.
func (p *GormPlugin) observers(s *schema.Schema) []*GenericObserver {
	if found := p.table.Observers(s.Name); len(found) > 0 {
		return found
	}
	return p.table.Observers(s.Table)
}

func entities(ctx context.Context, db *gorm.DB, source string) []Entity {
	rv := reflect.Indirect(db.Statement.ReflectValue)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]Entity, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, entityOf(ctx, db.Statement.Schema, reflect.Indirect(rv.Index(i)), source))
		}
		return out
	case reflect.Struct:
		return []Entity{entityOf(ctx, db.Statement.Schema, rv, source)}
	}
	return nil
}

// entityOf returns the model itself when it implements Entity. Other models are wrapped
// with their primary key as id and the dialector name as source.
func entityOf(ctx context.Context, s *schema.Schema, rv reflect.Value, source string) Entity {
	if rv.CanAddr() {
		if e, ok := rv.Addr().Interface().(Entity); ok {
			return e
		}
	}
	if e, ok := rv.Interface().(Entity); ok {
		return e
	}

	var id string
	if field := s.PrioritizedPrimaryField; field != nil {
		if v, zero := field.ValueOf(ctx, rv); !zero {
			id = fmt.Sprint(v)
		}
	}
	return &modelEntity{model: rv.Interface(), id: id, source: source}
}

// modelEntity carries a plain gorm model. Its payload is the model's JSON.
type modelEntity struct {
	model  interface{}
	id     string
	source string
}

func (e *modelEntity) EventID() string     { return e.id }
func (e *modelEntity) EventSource() string { return e.source }

func (e *modelEntity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.model)
}
