package store

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver

	"github.com/FocuswithJustin/commentariat/core/errors"
)

func openPostgres(ctx context.Context, dsn string) (*sqlStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connect to postgres")
	}
	if err := applySchema(ctx, db, postgresSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &sqlStore{db: db, dialect: DriverPostgres}, nil
}
