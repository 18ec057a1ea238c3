// Package report renders workspace data as spreadsheets.
package report

import (
	"io"
	"time"

	"zervos/internal/model"
)

var transactionHeader = []any{
	"Date", "Transaction", "Customer", "Phone", "Staff", "Payment",
	"Subtotal", "Discount", "Tax", "Total", "Points", "Tier",
}

var itemHeader = []any{"Transaction", "Item", "Kind", "Assigned to", "Quantity", "Price", "Line total"}

// WriteTransactions writes a workbook with a Transactions sheet (one row per
// sale plus a totals row) and an Items sheet (one row per cart line).
// Amounts are written in major units and times in loc.
func WriteTransactions(out io.Writer, txs []model.Transaction, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	w, err := newSheetWriter()
	if err != nil {
		return err
	}
	defer w.close()

	if err := w.addSheet("Transactions"); err != nil {
		return err
	}
	if err := w.writeRow(transactionHeader, true); err != nil {
		return err
	}

	var subtotal, discount, tax, total, points int64
	for _, t := range txs {
		row := []any{
			t.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			t.ID,
			t.CustomerName,
			t.CustomerPhone,
			t.StaffName,
			t.PaymentMethod,
			major(t.Subtotal),
			major(t.Discount),
			major(t.Tax),
			major(t.Total),
			t.PointsEarned,
			t.Tier,
		}
		if err := w.writeRow(row, false); err != nil {
			return err
		}
		subtotal += t.Subtotal
		discount += t.Discount
		tax += t.Tax
		total += t.Total
		points += t.PointsEarned
	}

	totals := []any{"Total", len(txs), "", "", "", "", major(subtotal), major(discount), major(tax), major(total), points, ""}
	if err := w.writeRow(totals, true); err != nil {
		return err
	}
	w.moneyColumns(7, 8, 9, 10)

	if err := w.addSheet("Items"); err != nil {
		return err
	}
	if err := w.writeRow(itemHeader, true); err != nil {
		return err
	}
	for _, t := range txs {
		for _, it := range t.Items {
			row := []any{t.ID, it.Name, it.Kind, it.AssignedPerson, it.Quantity, major(it.Price), major(it.LineTotal())}
			if err := w.writeRow(row, false); err != nil {
				return err
			}
		}
	}
	w.moneyColumns(6, 7)

	return w.save(out)
}

func major(minor int64) float64 {
	return float64(minor) / 100
}
