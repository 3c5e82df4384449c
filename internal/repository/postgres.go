package repository

import (
	"context"
	"errors"

	"entgo.io/ent/dialect"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/receipts-monitor/internal/common"
	"github.com/joseph-ayodele/receipts-monitor/internal/pricehistory"
)

// PostgresPriceStore implements PriceStore using a pgx pool.
type PostgresPriceStore struct {
	pool   Pool
	logger *zap.Logger
}

func (s *PostgresPriceStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, priceTableDDL(dialect.Postgres))
	return eris.Wrap(err, "postgres: migrate price_history")
}

func (s *PostgresPriceStore) Get(ctx context.Context, key pricehistory.Key) (pricehistory.State, bool, error) {
	q, args := selectPriceQuery(dialect.Postgres, key)
	st, err := scanPrice(s.pool.QueryRow(ctx, q, args...).Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return pricehistory.State{}, false, nil
	}
	if err != nil {
		s.logger.Error("repository.postgres.get_price_error", zap.String("product", key.Product), zap.Error(err))
		return pricehistory.State{}, false, common.DatabaseError("get price", err)
	}
	return st, true, nil
}

func (s *PostgresPriceStore) Put(ctx context.Context, st pricehistory.State) error {
	q, args := upsertPriceQuery(dialect.Postgres, st)
	if _, err := s.pool.Exec(ctx, q, args...); err != nil {
		s.logger.Error("repository.postgres.put_price_error", zap.String("product", st.Product), zap.Error(err))
		return common.DatabaseError("put price", err)
	}
	return nil
}

func (s *PostgresPriceStore) List(ctx context.Context) ([]pricehistory.State, error) {
	q, args := listPricesQuery(dialect.Postgres)
	rows, err := s.pool.Query(ctx, q, args...)
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

// PostgresDocumentStore implements DocumentStore using a pgx pool.
type PostgresDocumentStore struct {
	pool   Pool
	logger *zap.Logger
}

func (s *PostgresDocumentStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, documentTableDDL)
	return eris.Wrap(err, "postgres: migrate processed_documents")
}

func (s *PostgresDocumentStore) Seen(ctx context.Context, id string) (bool, error) {
	q, args := countDocumentQuery(dialect.Postgres, id)
	var n int
	if err := s.pool.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return false, common.DatabaseError("seen document", err)
	}
	return n > 0, nil
}

func (s *PostgresDocumentStore) MarkProcessed(ctx context.Context, doc ProcessedDocument) error {
	q, args := upsertDocumentQuery(dialect.Postgres, doc)
	if _, err := s.pool.Exec(ctx, q, args...); err != nil {
		s.logger.Error("repository.postgres.mark_processed_error", zap.String("document_id", doc.ID), zap.Error(err))
		return common.DatabaseError("mark processed", err)
	}
	return nil
}
