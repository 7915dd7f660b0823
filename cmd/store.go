package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-harvest/internal/store"
)

// errLedgerDisabled is returned by ledger commands when store.driver is none.
var errLedgerDisabled = eris.New("run ledger is disabled (store.driver: none)")

// initStore opens and migrates the configured run ledger. It returns a nil
// store when the ledger is disabled.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	zap.L().Debug("run ledger ready", zap.String("driver", cfg.Store.Driver))
	return st, nil
}

// requireStore is initStore for commands that only read the ledger.
func requireStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errLedgerDisabled
	}
	return st, nil
}
