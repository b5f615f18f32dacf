package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// pgStore keeps every collection as one row of record_store.
type pgStore struct {
	database *sql.DB
}

func newPGStore(dsn string) (*pgStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// Таблица коллекций: одна строка на коллекцию, содержимое перезаписывается целиком
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS record_store (" +
			" name VARCHAR (64) PRIMARY KEY," +
			" content TEXT NOT NULL," +
			" updated_at TIMESTAMP NOT NULL DEFAULT now()" +
			" );")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &pgStore{database: db}, nil
}

func (store *pgStore) Read(ctx context.Context, name string) ([]byte, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT content FROM record_store"+
			" WHERE name = $1",
		name)
	var content string
	err := row.Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return []byte(content), nil
}

func (store *pgStore) Modify(ctx context.Context, name string, fn func(current []byte) ([]byte, error)) error {
	tx, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", name, err)
	}
	defer tx.Rollback()

	// Блокировка коллекции до конца транзакции, в том числе ещё не созданной
	_, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", name)
	if err != nil {
		return fmt.Errorf("lock %s: %w", name, err)
	}

	var current []byte
	var content string
	err = tx.QueryRowContext(ctx,
		"SELECT content FROM record_store"+
			" WHERE name = $1",
		name).Scan(&content)
	switch {
	case err == nil:
		current = []byte(content)
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("read %s: %w", name, err)
	}

	updated, err := fn(current)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO record_store (name, content, updated_at)"+
			" VALUES ($1, $2, now())"+
			" ON CONFLICT (name) DO UPDATE"+
			" SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at",
		name,
		string(updated))
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return tx.Commit()
}

func (store *pgStore) Close() error {
	return store.database.Close()
}
