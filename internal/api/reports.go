package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"zervos/internal/legacy"
	"zervos/internal/model"
	"zervos/internal/report"
	"zervos/internal/schedule"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// transactionRange loads transactions for the inclusive from/to dates of the
// query, interpreted in the workspace time zone.
func (s *Server) transactionRange(r *http.Request) ([]model.Transaction, *time.Location, error) {
	ws := r.PathValue("ws")
	settings, err := s.Store.SettingsOrDefault(r.Context(), ws)
	if err != nil {
		return nil, nil, err
	}
	loc := settings.Location()

	q := r.URL.Query()
	from, err := time.ParseInLocation(schedule.DateLayout, q.Get("from"), loc)
	if err != nil {
		return nil, nil, model.Invalid("invalid from %q, expected YYYY-MM-DD", q.Get("from"))
	}
	to, err := time.ParseInLocation(schedule.DateLayout, q.Get("to"), loc)
	if err != nil {
		return nil, nil, model.Invalid("invalid to %q, expected YYYY-MM-DD", q.Get("to"))
	}
	if to.Before(from) {
		return nil, nil, model.Invalid("to must not be before from")
	}

	txs, err := s.Store.ListTransactions(r.Context(), ws, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, nil, err
	}
	return txs, loc, nil
}

// GET /api/workspaces/{ws}/transactions?from=&to=
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, _, err := s.transactionRange(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": orEmpty(txs)})
}

// GET /api/workspaces/{ws}/transactions/export?from=&to=
func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	txs, loc, err := s.transactionRange(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteTransactions(&buf, txs, loc); err != nil {
		s.fail(w, r, fmt.Errorf("export transactions: %w", err))
		return
	}

	q := r.URL.Query()
	filename := fmt.Sprintf("transactions_%s_%s_%s.xlsx", r.PathValue("ws"), q.Get("from"), q.Get("to"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// POST /api/workspaces/{ws}/import
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	dump, err := legacy.ParseDump(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.Importer.Import(r.Context(), r.PathValue("ws"), dump)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
