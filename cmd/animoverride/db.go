package main

import (
	"context"
	"fmt"
	"strings"

	"animoverride/internal/store"
	"animoverride/internal/store/postgres"
	"animoverride/internal/store/sqlite"
)

func openStore(ctx context.Context, dsn string) (store.Store, error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		client, err := sqlite.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		client, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	case dsn == "":
		return nil, fmt.Errorf("database DSN is required (--dsn or database.dsn)")
	default:
		return nil, fmt.Errorf("unsupported database DSN scheme: %s", dsn)
	}
}
