package storage

import (
	"context"
	"fmt"

	"board/internal/domain"
)

// Backend bundles the stores of one opened database.
type Backend struct {
	Boards    domain.BoardStore
	Elements  domain.ElementStore
	Blocks    domain.MaterialBlockStore
	Views     domain.ViewStateStore
	Settings  domain.SettingsStore
	Approvals domain.ApprovalStore

	// WatchPath is the local file that external writers touch, if any.
	WatchPath string

	close func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// BackendOptions selects a driver: "sqlite", "mysql", "postgres" or "mongodb".
type BackendOptions struct {
	Driver string
	SQL    Options
	Mongo  MongoOptions
}

// OpenBackend opens the configured database.
func OpenBackend(ctx context.Context, o BackendOptions) (*Backend, error) {
	switch o.Driver {
	case "mongodb":
		m, err := OpenMongo(ctx, o.Mongo)
		if err != nil {
			return nil, err
		}
		return &Backend{Boards: m, Elements: m, Blocks: m, Views: m, Settings: m, Approvals: m, close: m.Close}, nil
	case "", string(SQLite), string(MySQL), string(Postgres):
		opts := o.SQL
		opts.Dialect = Dialect(o.Driver)
		db, err := Open(ctx, opts)
		if err != nil {
			return nil, err
		}
		return NewSQLBackend(db), nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", o.Driver)
}

// NewSQLBackend wraps an open DB.
func NewSQLBackend(db *DB) *Backend {
	views := NewViewStore(db)
	return &Backend{
		Boards:    NewBoardStore(db),
		Elements:  NewElementStore(db),
		Blocks:    NewBlockStore(db),
		Views:     views,
		Settings:  views,
		Approvals: NewApprovalStore(db),
		WatchPath: db.Path(),
		close:     db.Close,
	}
}
