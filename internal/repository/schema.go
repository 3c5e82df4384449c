package repository

import (
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/receipts-monitor/constants"
	"github.com/joseph-ayodele/receipts-monitor/internal/pricehistory"
)

const (
	priceTable    = "price_history"
	documentTable = "processed_documents"
)

var priceColumns = []string{
	"product", "supplier", "unit_type",
	"current_price", "current_link",
	"previous_price", "previous_link",
	"last_updated", "observation_count",
	"last_delta_percent", "last_classification",
}

var priceKeyColumns = []string{"product", "supplier", "unit_type"}

func floatType(d string) string {
	if d == dialect.Postgres {
		return "DOUBLE PRECISION"
	}
	return "REAL"
}

// DDL is kept literal; ent's dialect builder has no CREATE TABLE.
const priceTableTemplate = `CREATE TABLE IF NOT EXISTS ` + priceTable + ` (
	product             TEXT NOT NULL,
	supplier            TEXT NOT NULL,
	unit_type           TEXT NOT NULL,
	current_price       TEXT NOT NULL,
	current_link        TEXT NOT NULL DEFAULT '',
	previous_price      TEXT,
	previous_link       TEXT,
	last_updated        TEXT NOT NULL DEFAULT '',
	observation_count   INTEGER NOT NULL DEFAULT 1,
	last_delta_percent  %s NOT NULL DEFAULT 0,
	last_classification TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (product, supplier, unit_type)
)`

const documentTableDDL = `CREATE TABLE IF NOT EXISTS ` + documentTable + ` (
	id           TEXT PRIMARY KEY,
	path         TEXT NOT NULL,
	kind         TEXT NOT NULL,
	status       TEXT NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	processed_at TEXT NOT NULL
)`

func priceTableDDL(d string) string {
	return fmt.Sprintf(priceTableTemplate, floatType(d))
}

func selectPriceQuery(d string, key pricehistory.Key) (string, []any) {
	b := entsql.Dialect(d)
	return b.Select(priceColumns...).
		From(b.Table(priceTable)).
		Where(entsql.And(
			entsql.EQ("product", key.Product),
			entsql.EQ("supplier", key.Supplier),
			entsql.EQ("unit_type", key.UnitType),
		)).
		Query()
}

func listPricesQuery(d string) (string, []any) {
	b := entsql.Dialect(d)
	return b.Select(priceColumns...).
		From(b.Table(priceTable)).
		OrderBy("supplier", "product", "unit_type").
		Query()
}

func upsertPriceQuery(d string, st pricehistory.State) (string, []any) {
	return entsql.Dialect(d).Insert(priceTable).
		Columns(priceColumns...).
		Values(
			st.Product, st.Supplier, st.UnitType,
			st.CurrentPrice, st.CurrentLink,
			nullString(st.PreviousPrice), nullString(st.PreviousLink),
			st.LastUpdated, st.ObservationCount,
			st.LastDeltaPercent, string(st.LastClassification),
		).
		OnConflict(
			entsql.ConflictColumns(priceKeyColumns...),
			entsql.ResolveWithNewValues(),
		).
		Query()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// scanPrice reads one priceColumns row; both database/sql and pgx rows fit.
func scanPrice(scan func(dest ...any) error) (pricehistory.State, error) {
	var (
		st             pricehistory.State
		prev, prevLink sql.NullString
		class          string
	)
	err := scan(
		&st.Product, &st.Supplier, &st.UnitType,
		&st.CurrentPrice, &st.CurrentLink,
		&prev, &prevLink,
		&st.LastUpdated, &st.ObservationCount,
		&st.LastDeltaPercent, &class,
	)
	if err != nil {
		return pricehistory.State{}, err
	}
	st.PreviousPrice = stringPtr(prev)
	st.PreviousLink = stringPtr(prevLink)
	st.LastClassification = pricehistory.Classification(class)
	return st, nil
}

// ProcessedDocument is one row of the idempotency ledger.
type ProcessedDocument struct {
	ID          string
	Path        string
	Kind        constants.DocumentKind
	Status      constants.DocumentStatus
	Error       string
	ProcessedAt time.Time
}

func countDocumentQuery(d, id string) (string, []any) {
	b := entsql.Dialect(d)
	return b.Select(entsql.Count("*")).
		From(b.Table(documentTable)).
		Where(entsql.EQ("id", id)).
		Query()
}

func upsertDocumentQuery(d string, doc ProcessedDocument) (string, []any) {
	return entsql.Dialect(d).Insert(documentTable).
		Columns("id", "path", "kind", "status", "error", "processed_at").
		Values(doc.ID, doc.Path, string(doc.Kind), string(doc.Status), doc.Error, doc.ProcessedAt.UTC().Format(time.RFC3339Nano)).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
}
