package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/security"
	"ledger/internal/services"
	"ledger/internal/summary"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, security.ClientIP(r),
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, please try again later")
}

// writeFailure maps err onto a status code: 400 for unparseable input, 422
// for validation errors and 500 with a generic message for everything else.
func writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var bad *errBadRequest
	var verr *core.ValidationError
	switch {
	case errors.As(err, &bad):
		writeError(w, http.StatusBadRequest, "bad_request", bad.msg)
	case errors.As(err, &verr):
		logger.InfoContext(ctx, "Request rejected",
			log.FieldOperation, op,
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldError, err)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: verr.Error(),
			Field:   verr.Field,
		})
	default:
		errType := log.ErrorTypeInternal
		if core.IsStore(err) {
			errType = log.ErrorTypeDatabase
		}
		logger.ErrorContext(ctx, "Request failed",
			log.FieldOperation, op,
			log.FieldErrorType, errType,
			log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

type transactionResponse struct {
	ID               int64   `json:"id"`
	Date             string  `json:"date"`
	Kind             string  `json:"kind"`
	Category         string  `json:"category"`
	Subcategory      string  `json:"subcategory"`
	PaymentMethod    string  `json:"payment_method"`
	Amount           float64 `json:"amount"`
	Note             string  `json:"note"`
	InstallmentCount int     `json:"installment_count"`
}

func newTransactionResponses(rows []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(rows))
	for i, t := range rows {
		out[i] = transactionResponse{
			ID:               t.ID,
			Date:             t.Date.String(),
			Kind:             string(t.Kind),
			Category:         string(t.Category),
			Subcategory:      string(t.Subcategory),
			PaymentMethod:    string(t.PaymentMethod),
			Amount:           t.Amount.InexactFloat64(),
			Note:             t.Note,
			InstallmentCount: t.InstallmentCount,
		}
	}
	return out
}

type summaryRowResponse struct {
	Year          string  `json:"year"`
	MonthNumber   string  `json:"month_number"`
	Month         string  `json:"month"`
	Income        float64 `json:"income"`
	Expenses      float64 `json:"expenses"`
	Basic         float64 `json:"basic"`
	Want          float64 `json:"want"`
	Savings       float64 `json:"savings"`
	BasicBudget   float64 `json:"basic_budget"`
	WantBudget    float64 `json:"want_budget"`
	SavingsBudget float64 `json:"savings_budget"`
	BasicPct      float64 `json:"basic_pct"`
	WantPct       float64 `json:"want_pct"`
	SavingsPct    float64 `json:"savings_pct"`
	Balance       float64 `json:"balance"`
	BalanceSymbol string  `json:"balance_symbol"`
}

func newSummaryResponse(rows []summary.Row) []summaryRowResponse {
	out := make([]summaryRowResponse, len(rows))
	for i, r := range rows {
		out[i] = summaryRowResponse{
			Year:          r.Year,
			MonthNumber:   r.MonthNumber,
			Month:         r.Month,
			Income:        r.Income.InexactFloat64(),
			Expenses:      r.Expenses.InexactFloat64(),
			Basic:         r.Basic.InexactFloat64(),
			Want:          r.Want.InexactFloat64(),
			Savings:       r.Savings.InexactFloat64(),
			BasicBudget:   r.BasicBudget.InexactFloat64(),
			WantBudget:    r.WantBudget.InexactFloat64(),
			SavingsBudget: r.SavingsBudget.InexactFloat64(),
			BasicPct:      r.BasicPct.InexactFloat64(),
			WantPct:       r.WantPct.InexactFloat64(),
			SavingsPct:    r.SavingsPct.InexactFloat64(),
			Balance:       r.Balance.InexactFloat64(),
			BalanceSymbol: r.BalanceSymbol,
		}
	}
	return out
}

type subcategoryResponse struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

type breakdownResponse struct {
	Category      string                `json:"category"`
	Subcategories []subcategoryResponse `json:"subcategories"`
}

func newBreakdownResponse(groups []summary.CategoryBreakdown) []breakdownResponse {
	out := make([]breakdownResponse, len(groups))
	for i, g := range groups {
		subs := make([]subcategoryResponse, len(g.Subcategories))
		for j, s := range g.Subcategories {
			subs[j] = subcategoryResponse{Name: string(s.Name), Total: s.Total.InexactFloat64()}
		}
		out[i] = breakdownResponse{Category: string(g.Category), Subcategories: subs}
	}
	return out
}

type dashboardResponse struct {
	Expenses []categoryTotalResponse `json:"expenses"`
	Income   []monthTotalResponse    `json:"income"`
}

type categoryTotalResponse struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type monthTotalResponse struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

func newDashboardResponse(d summary.Dashboard) dashboardResponse {
	out := dashboardResponse{
		Expenses: make([]categoryTotalResponse, len(d.Expenses)),
		Income:   make([]monthTotalResponse, len(d.Income)),
	}
	for i, c := range d.Expenses {
		out.Expenses[i] = categoryTotalResponse{Category: string(c.Category), Total: c.Total.InexactFloat64()}
	}
	for i, m := range d.Income {
		out.Income[i] = monthTotalResponse{Month: m.Month.String(), Total: m.Total.InexactFloat64()}
	}
	return out
}

type importResponse struct {
	Inserted int      `json:"inserted"`
	Errors   []string `json:"errors"`
}

func newImportResponse(res services.ImportResult) importResponse {
	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	return importResponse{Inserted: res.Inserted, Errors: errs}
}
