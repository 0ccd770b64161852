package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/lib/pq"
	"github.com/xxxsen/mediaidx/internal/model"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	colItem = "item"
	colPath = "filesystem_path"

	insertChunkSize = 200
)

// IndexDAO encapsulates access to the media index table.
type IndexDAO struct {
	db     *sql.DB
	driver string
	table  string
}

// NewIndexDAO opens a connection for the given driver and returns a DAO bound
// to table. The table name must already be validated as an identifier.
func NewIndexDAO(driver, dsn, table string) (*IndexDAO, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return &IndexDAO{db: db, driver: driver, table: table}, nil
}

// Close releases the underlying database connection.
func (dao *IndexDAO) Close() error {
	if dao.db == nil {
		return nil
	}
	return dao.db.Close()
}

// Ping verifies the connection parameters.
func (dao *IndexDAO) Ping(ctx context.Context) error {
	if err := dao.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", dao.driver, err)
	}
	return nil
}

// EnsureSchema creates the index table and its lookup index when missing.
func (dao *IndexDAO) EnsureSchema(ctx context.Context) error {
	table := pq.QuoteIdentifier(dao.table)
	createTableSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	item TEXT NOT NULL,
	filesystem_path TEXT NOT NULL
)`, table)
	createIndexSQL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s(item)`,
		pq.QuoteIdentifier("idx_"+dao.table+"_item"), table)

	if _, err := dao.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table %s: %w", dao.table, err)
	}
	if _, err := dao.db.ExecContext(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("create index on %s: %w", dao.table, err)
	}
	return nil
}

// ReplaceAll clears the table and inserts pairs in a single transaction,
// returning the number of rows written.
func (dao *IndexDAO) ReplaceAll(ctx context.Context, pairs []model.Pair) (int, error) {
	err := dao.onTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if dao.driver == DriverPostgres {
			return dao.replacePostgres(ctx, tx, pairs)
		}
		return dao.replaceSQLite(ctx, tx, pairs)
	})
	if err != nil {
		return 0, err
	}
	return len(pairs), nil
}

func (dao *IndexDAO) replacePostgres(ctx context.Context, tx *sql.Tx, pairs []model.Pair) error {
	if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE "+pq.QuoteIdentifier(dao.table)); err != nil {
		return fmt.Errorf("truncate %s: %w", dao.table, err)
	}
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(dao.table, colItem, colPath))
	if err != nil {
		return fmt.Errorf("prepare copy into %s: %w", dao.table, err)
	}
	for _, p := range pairs {
		if _, err := stmt.ExecContext(ctx, p.Name, p.Path); err != nil {
			stmt.Close()
			return fmt.Errorf("copy row %s: %w", p.Name, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flush copy into %s: %w", dao.table, err)
	}
	return stmt.Close()
}

func (dao *IndexDAO) replaceSQLite(ctx context.Context, tx *sql.Tx, pairs []model.Pair) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(dao.table)); err != nil {
		return fmt.Errorf("clear %s: %w", dao.table, err)
	}
	for start := 0; start < len(pairs); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(pairs) {
			end = len(pairs)
		}
		payload := make([]map[string]interface{}, 0, end-start)
		for _, p := range pairs[start:end] {
			payload = append(payload, map[string]interface{}{
				colItem: p.Name,
				colPath: p.Path,
			})
		}
		insertSQL, args, err := builder.BuildInsert(dao.table, payload)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
			return fmt.Errorf("insert rows %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// Find returns stored rows whose item contains pattern (case-insensitive),
// ordered by item. An empty pattern matches everything; limit <= 0 means no limit.
func (dao *IndexDAO) Find(ctx context.Context, pattern string, limit int) ([]model.StoredItem, error) {
	if dao.driver == DriverPostgres {
		return dao.findPostgres(ctx, pattern, limit)
	}

	where := map[string]interface{}{
		"_orderby": colItem + " asc",
	}
	if pattern != "" {
		where[colItem+" like"] = "%" + pattern + "%"
	}
	if limit > 0 {
		where["_limit"] = []uint{0, uint(limit)}
	}
	query, args, err := builder.BuildSelect(dao.table, where, []string{colItem, colPath})
	if err != nil {
		return nil, err
	}
	rows, err := dao.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", dao.table, err)
	}
	defer rows.Close()
	return dao.scanItems(rows)
}

func (dao *IndexDAO) findPostgres(ctx context.Context, pattern string, limit int) ([]model.StoredItem, error) {
	query := fmt.Sprintf("SELECT item, filesystem_path FROM %s WHERE item ILIKE $1 ORDER BY item", pq.QuoteIdentifier(dao.table))
	args := []interface{}{"%" + pattern + "%"}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := dao.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", dao.table, err)
	}
	defer rows.Close()
	return dao.scanItems(rows)
}

func (dao *IndexDAO) scanItems(rows *sql.Rows) ([]model.StoredItem, error) {
	var items []model.StoredItem
	for rows.Next() {
		var item model.StoredItem
		if err := rows.Scan(&item.Item, &item.FilesystemPath); err != nil {
			return nil, fmt.Errorf("scan %s: %w", dao.table, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the number of stored rows.
func (dao *IndexDAO) Count(ctx context.Context) (int64, error) {
	var n int64
	err := dao.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+pq.QuoteIdentifier(dao.table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", dao.table, err)
	}
	return n, nil
}

func (dao *IndexDAO) onTransaction(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := dao.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
