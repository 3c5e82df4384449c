package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/receipts-monitor/constants"
	"github.com/joseph-ayodele/receipts-monitor/internal/entity"
	"github.com/joseph-ayodele/receipts-monitor/internal/pricehistory"
)

const (
	ReceiptsSheet     = "Receipts"
	InvoiceItemsSheet = "Invoice Items"
	PriceHistorySheet = "Price History"
)

var (
	receiptHeaders = []string{
		"Date", "Vendor", "Category", "Total", "Subtotal", "Tax",
		"Payment Method", "Card Last 4", "Items", "Source File",
		"Image Link", "Processed",
	}
	invoiceHeaders = []string{
		"Date", "Supplier", "Invoice Number", "Item Description", "Quantity",
		"Unit Type", "Unit Price", "Total Price", "SKU", "Price Change",
		"Source File", "Invoice Link", "Processed",
	}
	priceHeaders = []string{
		"Product", "Supplier", "Unit Type", "Current Price", "Previous Price",
		"Change %", "Direction", "Last Updated", "Observations",
		"Current Link", "Previous Link",
	}
)

// Workbook is an XLSX sink for recovered documents. It is safe for
// concurrent use; rows are appended in call order.
type Workbook struct {
	mu     sync.Mutex
	f      *excelize.File
	next   map[string]int
	styles styles
	now    func() time.Time
	logger *zap.Logger
}

type styles struct {
	header   int
	increase int
	decrease int
	review   int
}

// NewWorkbook creates an empty workbook with all sheets and headers.
func NewWorkbook(logger *zap.Logger) (*Workbook, error) {
	f := excelize.NewFile()
	// the default sheet becomes Receipts
	if err := f.SetSheetName("Sheet1", ReceiptsSheet); err != nil {
		return nil, eris.Wrap(err, "xlsx: rename default sheet")
	}
	return newWorkbook(f, logger)
}

// OpenWorkbook opens the workbook at path, or creates a new one if the
// file does not exist yet. Appends continue after the last used row.
func OpenWorkbook(path string, logger *zap.Logger) (*Workbook, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return NewWorkbook(logger)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}
	return newWorkbook(f, logger)
}

func newWorkbook(f *excelize.File, logger *zap.Logger) (*Workbook, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Workbook{f: f, next: map[string]int{}, now: time.Now, logger: logger}
	if err := w.initStyles(); err != nil {
		return nil, err
	}
	for _, s := range []struct {
		name    string
		headers []string
	}{
		{ReceiptsSheet, receiptHeaders},
		{InvoiceItemsSheet, invoiceHeaders},
		{PriceHistorySheet, priceHeaders},
	} {
		if err := w.ensureSheet(s.name, s.headers); err != nil {
			return nil, err
		}
	}
	if idx, err := f.GetSheetIndex(ReceiptsSheet); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return w, nil
}

func (w *Workbook) initStyles() error {
	fill := func(color string) *excelize.Style {
		return &excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}}
	}
	var err error
	if w.styles.header, err = w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return eris.Wrap(err, "xlsx: header style")
	}
	if w.styles.increase, err = w.f.NewStyle(fill("FFC7CE")); err != nil {
		return eris.Wrap(err, "xlsx: increase style")
	}
	if w.styles.decrease, err = w.f.NewStyle(fill("C6EFCE")); err != nil {
		return eris.Wrap(err, "xlsx: decrease style")
	}
	if w.styles.review, err = w.f.NewStyle(fill("FFEB9C")); err != nil {
		return eris.Wrap(err, "xlsx: review style")
	}
	return nil
}

// ensureSheet creates the sheet with headers if missing and records the
// next free row.
func (w *Workbook) ensureSheet(name string, headers []string) error {
	idx, err := w.f.GetSheetIndex(name)
	if err != nil {
		return eris.Wrapf(err, "xlsx: sheet index %s", name)
	}
	if idx == -1 {
		if _, err := w.f.NewSheet(name); err != nil {
			return eris.Wrapf(err, "xlsx: new sheet %s", name)
		}
	}
	rows, err := w.f.GetRows(name)
	if err != nil {
		return eris.Wrapf(err, "xlsx: read rows %s", name)
	}
	if len(rows) == 0 {
		if err := w.writeHeaders(name, headers); err != nil {
			return err
		}
		w.next[name] = 2
		return nil
	}
	w.next[name] = len(rows) + 1
	return nil
}

func (w *Workbook) writeHeaders(sheet string, headers []string) error {
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := w.f.SetSheetRow(sheet, "A1", &row); err != nil {
		return eris.Wrapf(err, "xlsx: headers %s", sheet)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = w.f.SetCellStyle(sheet, "A1", last, w.styles.header)
	return nil
}

// appendRow writes values at the next row of sheet and returns the row number.
func (w *Workbook) appendRow(sheet string, values []any) (int, error) {
	row := w.next[sheet]
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		return 0, eris.Wrapf(err, "xlsx: append %s row %d", sheet, row)
	}
	w.next[sheet] = row + 1
	return row, nil
}

func (w *Workbook) setLink(sheet string, col, row int, link, label string) {
	if link == "" {
		return
	}
	cell, _ := excelize.CoordinatesToCellName(col, row)
	formula := fmt.Sprintf(`HYPERLINK("%s","%s")`, strings.ReplaceAll(link, `"`, `""`), label)
	if err := w.f.SetCellFormula(sheet, cell, formula); err != nil {
		w.logger.Warn("export.xlsx.link_error", zap.String("sheet", sheet), zap.String("cell", cell), zap.Error(err))
	}
}

func (w *Workbook) fillRow(sheet string, row, cols, style int) {
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(cols, row)
	_ = w.f.SetCellStyle(sheet, first, last, style)
}

func (w *Workbook) timestamp() string {
	return w.now().UTC().Format(time.RFC3339)
}

// AppendReceipt writes one receipts row.
func (w *Workbook) AppendReceipt(doc entity.Document, r entity.Receipt) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	row, err := w.appendRow(ReceiptsSheet, []any{
		r.Date, r.Vendor, string(r.Category), r.Total, r.Subtotal, r.Tax,
		r.PaymentMethod, r.CardLastFour, r.ItemsSummary(), doc.Name,
		"", w.timestamp(),
	})
	if err != nil {
		return err
	}
	w.setLink(ReceiptsSheet, 11, row, doc.Link, "View Receipt")
	if r.NeedsReview {
		w.fillRow(ReceiptsSheet, row, len(receiptHeaders), w.styles.review)
	}
	w.logger.Debug("export.xlsx.receipt", zap.String("document", doc.Name), zap.Int("row", row))
	return nil
}

// AppendInvoice writes one row per line item, or a single "No items found"
// summary row. changes carries the price-history result by line index.
func (w *Workbook) AppendInvoice(doc entity.Document, inv entity.Invoice, changes map[int]pricehistory.Update) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(inv.Items) == 0 {
		row, err := w.appendRow(InvoiceItemsSheet, []any{
			inv.Date, inv.Supplier, inv.InvoiceNumber, constants.NoItemsFound,
			"", "", "", inv.Total, "", "", doc.Name, "", w.timestamp(),
		})
		if err != nil {
			return err
		}
		w.setLink(InvoiceItemsSheet, 12, row, doc.Link, "View Invoice")
		return nil
	}

	for i, it := range inv.Items {
		var change string
		upd, tracked := changes[i]
		if tracked {
			change = FormatChange(upd)
		}
		row, err := w.appendRow(InvoiceItemsSheet, []any{
			inv.Date, inv.Supplier, inv.InvoiceNumber, it.Description,
			it.Quantity, it.UnitType, it.UnitPrice, it.TotalPrice, it.SKU,
			change, doc.Name, "", w.timestamp(),
		})
		if err != nil {
			return err
		}
		w.setLink(InvoiceItemsSheet, 12, row, doc.Link, "View Invoice")
		switch {
		case tracked && upd.Classification == pricehistory.Increase:
			w.fillRow(InvoiceItemsSheet, row, len(invoiceHeaders), w.styles.increase)
		case tracked && upd.Classification == pricehistory.Decrease:
			w.fillRow(InvoiceItemsSheet, row, len(invoiceHeaders), w.styles.decrease)
		case inv.NeedsReview:
			w.fillRow(InvoiceItemsSheet, row, len(invoiceHeaders), w.styles.review)
		}
	}
	w.logger.Debug("export.xlsx.invoice", zap.String("document", doc.Name), zap.Int("items", len(inv.Items)))
	return nil
}

// AppendFailure writes a "PROCESSING FAILED" row on the sheet for doc's kind.
func (w *Workbook) AppendFailure(doc entity.Document, cause error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	msg := "Error: unknown"
	if cause != nil {
		msg = "Error: " + cause.Error()
	}
	date := w.now().Format(constants.DateLayout)

	if doc.Kind == constants.KindInvoice {
		row, err := w.appendRow(InvoiceItemsSheet, []any{
			date, constants.ProcessingFailedMark, "", msg,
			"", "", "", "", "", "", doc.Name, "", w.timestamp(),
		})
		if err != nil {
			return err
		}
		w.setLink(InvoiceItemsSheet, 12, row, doc.Link, "View Invoice")
		return nil
	}

	row, err := w.appendRow(ReceiptsSheet, []any{
		date, constants.ProcessingFailedMark, constants.ErrorMark,
		"", "", "", "", "", msg, doc.Name, "", w.timestamp(),
	})
	if err != nil {
		return err
	}
	w.setLink(ReceiptsSheet, 11, row, doc.Link, "View Receipt")
	return nil
}

// WritePriceHistory replaces the price history sheet with states.
func (w *Workbook) WritePriceHistory(states []pricehistory.State) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.f.DeleteSheet(PriceHistorySheet); err != nil {
		return eris.Wrap(err, "xlsx: reset price history")
	}
	if err := w.ensureSheet(PriceHistorySheet, priceHeaders); err != nil {
		return err
	}
	for _, st := range states {
		prev, prevLink := "", ""
		if st.PreviousPrice != nil {
			prev = *st.PreviousPrice
		}
		if st.PreviousLink != nil {
			prevLink = *st.PreviousLink
		}
		row, err := w.appendRow(PriceHistorySheet, []any{
			st.Product, st.Supplier, st.UnitType, st.CurrentPrice, prev,
			fmt.Sprintf("%.2f", st.LastDeltaPercent), string(st.LastClassification),
			st.LastUpdated, st.ObservationCount, "", "",
		})
		if err != nil {
			return err
		}
		w.setLink(PriceHistorySheet, 10, row, st.CurrentLink, "Current")
		w.setLink(PriceHistorySheet, 11, row, prevLink, "Previous")
		switch st.LastClassification {
		case pricehistory.Increase:
			w.fillRow(PriceHistorySheet, row, len(priceHeaders), w.styles.increase)
		case pricehistory.Decrease:
			w.fillRow(PriceHistorySheet, row, len(priceHeaders), w.styles.decrease)
		}
	}
	return nil
}

// Save writes the workbook to path.
func (w *Workbook) Save(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	if err := w.f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	w.logger.Info("export.xlsx.ok",
		zap.String("path", path),
		zap.Int("receipt_rows", w.next[ReceiptsSheet]-2),
		zap.Int("invoice_rows", w.next[InvoiceItemsSheet]-2),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// WriteTo streams the workbook as XLSX bytes.
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.WriteTo(out)
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// FormatChange renders an update for the Price Change column.
func FormatChange(u pricehistory.Update) string {
	switch u.Classification {
	case pricehistory.NewProduct:
		return "new"
	case pricehistory.Increase:
		return fmt.Sprintf("+%.2f%%", u.DeltaPercent)
	case pricehistory.Decrease:
		return fmt.Sprintf("%.2f%%", u.DeltaPercent)
	default:
		return "0.00%"
	}
}
