package http

import (
	"errors"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/reports"
	"ledger/internal/summary"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	start, end, ranged, err := parseRange(r)
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}

	var rows []core.Transaction
	if ranged {
		rows, err = s.ledger.ListRange(r.Context(), start, end)
	} else {
		rows, err = s.ledger.List(r.Context())
	}
	if err != nil {
		writeFailure(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionResponses(rows))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var draft core.Draft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeFailure(w, r, log.OpRecord, err)
		return
	}

	rows, err := s.ledger.Record(r.Context(), draft)
	if err != nil {
		writeFailure(w, r, log.OpRecord, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionResponses(rows))
}

func (s *Server) handleBulkImport(w http.ResponseWriter, r *http.Request) {
	var drafts core.Drafts
	if err := decodeJSON(w, r, &drafts); err != nil {
		writeFailure(w, r, log.OpImport, err)
		return
	}

	res, err := s.ledger.Import(r.Context(), drafts)
	if err != nil {
		writeFailure(w, r, log.OpImport, err)
		return
	}
	writeJSON(w, http.StatusOK, newImportResponse(res))
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	rows, err := s.ledger.MonthlySummary(r.Context())
	if err != nil {
		writeFailure(w, r, log.OpSummary, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(rows))
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		writeFailure(w, r, log.OpSummary, err)
		return
	}
	s.writeBreakdown(w, r, summary.ByKind(kind))
}

func (s *Server) handleIncomeBreakdown(w http.ResponseWriter, r *http.Request) {
	s.writeBreakdown(w, r, summary.IncomeView())
}

func (s *Server) handleExpenseBreakdown(w http.ResponseWriter, r *http.Request) {
	s.writeBreakdown(w, r, summary.ExpenseView())
}

func (s *Server) writeBreakdown(w http.ResponseWriter, r *http.Request, keep summary.Filter) {
	month, err := parseMonth(r)
	if err != nil {
		writeFailure(w, r, log.OpSummary, err)
		return
	}
	groups, err := s.ledger.Breakdown(r.Context(), month, keep)
	if err != nil {
		writeFailure(w, r, log.OpSummary, err)
		return
	}
	writeJSON(w, http.StatusOK, newBreakdownResponse(groups))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.ledger.Dashboard(r.Context())
	if err != nil {
		writeFailure(w, r, log.OpSummary, err)
		return
	}
	writeJSON(w, http.StatusOK, newDashboardResponse(d))
}

func (s *Server) handleSummaryPDF(w http.ResponseWriter, r *http.Request) {
	rows, err := s.ledger.MonthlySummary(r.Context())
	if err != nil {
		writeFailure(w, r, log.OpRender, err)
		return
	}
	body, err := reports.SummaryPDF(rows)
	if err != nil {
		writeFailure(w, r, log.OpRender, err)
		return
	}
	writeFile(w, "application/pdf", "ledger-summary.pdf", body)
}

func (s *Server) handleSummaryChart(w http.ResponseWriter, r *http.Request) {
	rows, err := s.ledger.MonthlySummary(r.Context())
	if err != nil {
		writeFailure(w, r, log.OpRender, err)
		return
	}
	body, err := reports.SummaryChart(rows)
	if errors.Is(err, reports.ErrNoData) {
		writeError(w, http.StatusNotFound, "no_data", "no transactions recorded yet")
		return
	}
	if err != nil {
		writeFailure(w, r, log.OpRender, err)
		return
	}
	writeFile(w, "image/png", "ledger-summary.png", body)
}

func writeFile(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
