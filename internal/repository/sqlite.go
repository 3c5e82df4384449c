package repository

import (
	"context"
	"database/sql"
	"errors"

	"entgo.io/ent/dialect"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/receipts-monitor/internal/common"
	"github.com/joseph-ayodele/receipts-monitor/internal/pricehistory"
)

// SQLitePriceStore implements PriceStore using modernc.org/sqlite.
type SQLitePriceStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func (s *SQLitePriceStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, priceTableDDL(dialect.SQLite))
	return eris.Wrap(err, "sqlite: migrate price_history")
}

func (s *SQLitePriceStore) Get(ctx context.Context, key pricehistory.Key) (pricehistory.State, bool, error) {
	q, args := selectPriceQuery(dialect.SQLite, key)
	st, err := scanPrice(s.db.QueryRowContext(ctx, q, args...).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return pricehistory.State{}, false, nil
	}
	if err != nil {
		s.logger.Error("repository.sqlite.get_price_error", zap.String("product", key.Product), zap.Error(err))
		return pricehistory.State{}, false, common.DatabaseError("get price", err)
	}
	return st, true, nil
}

func (s *SQLitePriceStore) Put(ctx context.Context, st pricehistory.State) error {
	q, args := upsertPriceQuery(dialect.SQLite, st)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.logger.Error("repository.sqlite.put_price_error", zap.String("product", st.Product), zap.Error(err))
		return common.DatabaseError("put price", err)
	}
	return nil
}

func (s *SQLitePriceStore) List(ctx context.Context) ([]pricehistory.State, error) {
	q, args := listPricesQuery(dialect.SQLite)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, common.DatabaseError("list prices", err)
	}
	defer rows.Close()

	var out []pricehistory.State
	for rows.Next() {
		st, err := scanPrice(rows.Scan)
		if err != nil {
			return nil, common.DatabaseError("scan price", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DatabaseError("list prices iterate", err)
	}
	return out, nil
}

// SQLiteDocumentStore implements DocumentStore using modernc.org/sqlite.
type SQLiteDocumentStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func (s *SQLiteDocumentStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, documentTableDDL)
	return eris.Wrap(err, "sqlite: migrate processed_documents")
}

func (s *SQLiteDocumentStore) Seen(ctx context.Context, id string) (bool, error) {
	q, args := countDocumentQuery(dialect.SQLite, id)
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return false, common.DatabaseError("seen document", err)
	}
	return n > 0, nil
}

func (s *SQLiteDocumentStore) MarkProcessed(ctx context.Context, doc ProcessedDocument) error {
	q, args := upsertDocumentQuery(dialect.SQLite, doc)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.logger.Error("repository.sqlite.mark_processed_error", zap.String("document_id", doc.ID), zap.Error(err))
		return common.DatabaseError("mark processed", err)
	}
	return nil
}
