package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/allisson/cedms/internal/database"
)

// dialect holds the driver specific statements of the records table.
type dialect struct {
	get        string
	getForUpd  string
	create     string
	put        string
	update     string
	delete     string
	list       string
	last       string
	truncate   string
	insertMany string
}

var postgresDialect = dialect{
	get:       `SELECT value FROM records WHERE collection = $1 AND record_key = $2`,
	getForUpd: `SELECT value FROM records WHERE collection = $1 AND record_key = $2 FOR UPDATE`,
	create: `INSERT INTO records (collection, record_key, value) VALUES ($1, $2, $3)
		ON CONFLICT (collection, record_key) DO NOTHING`,
	put: `INSERT INTO records (collection, record_key, value) VALUES ($1, $2, $3)
		ON CONFLICT (collection, record_key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
	update:     `UPDATE records SET value = $1, updated_at = NOW() WHERE collection = $2 AND record_key = $3`,
	delete:     `DELETE FROM records WHERE collection = $1 AND record_key = $2`,
	list:       `SELECT record_key, value FROM records WHERE collection = $1 ORDER BY id ASC`,
	last:       `SELECT record_key, value FROM records WHERE collection = $1 ORDER BY id DESC LIMIT 1`,
	truncate:   `DELETE FROM records WHERE collection = $1`,
	insertMany: `INSERT INTO records (collection, record_key, value) VALUES ($1, $2, $3)`,
}

var mysqlDialect = dialect{
	get:        `SELECT value FROM records WHERE collection = ? AND record_key = ?`,
	getForUpd:  `SELECT value FROM records WHERE collection = ? AND record_key = ? FOR UPDATE`,
	create:     `INSERT IGNORE INTO records (collection, record_key, value) VALUES (?, ?, ?)`,
	put:        `INSERT INTO records (collection, record_key, value) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = CURRENT_TIMESTAMP(6)`,
	update:     `UPDATE records SET value = ?, updated_at = CURRENT_TIMESTAMP(6) WHERE collection = ? AND record_key = ?`,
	delete:     `DELETE FROM records WHERE collection = ? AND record_key = ?`,
	list:       `SELECT record_key, value FROM records WHERE collection = ? ORDER BY id ASC`,
	last:       `SELECT record_key, value FROM records WHERE collection = ? ORDER BY id DESC LIMIT 1`,
	truncate:   `DELETE FROM records WHERE collection = ?`,
	insertMany: `INSERT INTO records (collection, record_key, value) VALUES (?, ?, ?)`,
}

// SQLStore keeps every collection in the shared "records" table.
//
// Insertion order is the auto-increment id. Update locks the row with
// SELECT ... FOR UPDATE inside a transaction, so concurrent updates of the same
// key across processes are serialized by the database.
type SQLStore struct {
	db        *sql.DB
	txManager database.TxManager
	dialect   dialect
}

// NewPostgreSQLStore creates a SQL store for PostgreSQL.
func NewPostgreSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, txManager: database.NewTxManager(db), dialect: postgresDialect}
}

// NewMySQLStore creates a SQL store for MySQL.
func NewMySQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, txManager: database.NewTxManager(db), dialect: mysqlDialect}
}

func (s *SQLStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	querier := database.GetTx(ctx, s.db)

	var value []byte
	err := querier.QueryRowContext(ctx, s.dialect.get, collection, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, storageError(err, "failed to get record")
	}
	return value, nil
}

func (s *SQLStore) Create(ctx context.Context, collection, key string, value []byte) error {
	querier := database.GetTx(ctx, s.db)

	result, err := querier.ExecContext(ctx, s.dialect.create, collection, key, value)
	if err != nil {
		return storageError(err, "failed to create record")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storageError(err, "failed to create record")
	}
	if affected == 0 {
		return ErrRecordExists
	}
	return nil
}

func (s *SQLStore) Put(ctx context.Context, collection, key string, value []byte) error {
	querier := database.GetTx(ctx, s.db)

	if _, err := querier.ExecContext(ctx, s.dialect.put, collection, key, value); err != nil {
		return storageError(err, "failed to put record")
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, collection, key string, fn UpdateFunc) error {
	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, s.db)

		var current []byte
		err := querier.QueryRowContext(ctx, s.dialect.getForUpd, collection, key).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecordNotFound
		}
		if err != nil {
			return storageError(err, "failed to lock record")
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		if _, err := querier.ExecContext(ctx, s.dialect.update, next, collection, key); err != nil {
			return storageError(err, "failed to update record")
		}
		return nil
	})
}

func (s *SQLStore) Delete(ctx context.Context, collection, key string) error {
	querier := database.GetTx(ctx, s.db)

	result, err := querier.ExecContext(ctx, s.dialect.delete, collection, key)
	if err != nil {
		return storageError(err, "failed to delete record")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storageError(err, "failed to delete record")
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, collection string) ([]Record, error) {
	querier := database.GetTx(ctx, s.db)

	rows, err := querier.QueryContext(ctx, s.dialect.list, collection)
	if err != nil {
		return nil, storageError(err, "failed to list records")
	}
	defer func() { _ = rows.Close() }()

	records := make([]Record, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Key, &r.Value); err != nil {
			return nil, storageError(err, "failed to scan record")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err, "failed to iterate records")
	}
	return records, nil
}

func (s *SQLStore) Last(ctx context.Context, collection string) (*Record, error) {
	querier := database.GetTx(ctx, s.db)

	var r Record
	err := querier.QueryRowContext(ctx, s.dialect.last, collection).Scan(&r.Key, &r.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, storageError(err, "failed to get last record")
	}
	return &r, nil
}

func (s *SQLStore) Replace(ctx context.Context, collection string, records []Record) error {
	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, s.db)

		if _, err := querier.ExecContext(ctx, s.dialect.truncate, collection); err != nil {
			return storageError(err, "failed to truncate collection")
		}
		for _, r := range records {
			if _, err := querier.ExecContext(ctx, s.dialect.insertMany, collection, r.Key, r.Value); err != nil {
				return storageError(err, fmt.Sprintf("failed to insert record %s", r.Key))
			}
		}
		return nil
	})
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
