package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ledger/internal/core"
)

// errBadRequest marks a body or query parameter that could not be parsed.
type errBadRequest struct{ msg string }

func (e *errBadRequest) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &errBadRequest{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads exactly one JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &maxErr):
			return badRequest("request body exceeds %d bytes", maxErr.Limit)
		default:
			return badRequest("malformed JSON body: %v", err)
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("request body must contain a single JSON value")
	}
	return nil
}

// parseMonth reads the required month=YYYY-MM query parameter.
func parseMonth(r *http.Request) (core.YearMonth, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.YearMonth{}, badRequest("missing month parameter, expected YYYY-MM")
	}
	ym, err := core.ParseYearMonth(v)
	if err != nil {
		return core.YearMonth{}, badRequest("invalid month %q, expected YYYY-MM", v)
	}
	return ym, nil
}

// parseRange reads the optional start and end query parameters. Both must
// be given together; ok is false when neither is.
func parseRange(r *http.Request) (start, end core.Date, ok bool, err error) {
	q := r.URL.Query()
	startStr, endStr := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	if startStr == "" && endStr == "" {
		return core.Date{}, core.Date{}, false, nil
	}
	if startStr == "" || endStr == "" {
		return core.Date{}, core.Date{}, false, badRequest("start and end must be given together")
	}
	if start, err = core.ParseDate(startStr); err != nil {
		return core.Date{}, core.Date{}, false, badRequest("invalid start %q, expected YYYY-MM-DD", startStr)
	}
	if end, err = core.ParseDate(endStr); err != nil {
		return core.Date{}, core.Date{}, false, badRequest("invalid end %q, expected YYYY-MM-DD", endStr)
	}
	return start, end, true, nil
}

// parseKind reads the required kind query parameter.
func parseKind(r *http.Request) (core.Kind, error) {
	v := strings.TrimSpace(r.URL.Query().Get("kind"))
	if v == "" {
		return "", badRequest("missing kind parameter, expected Income or Expense")
	}
	k, err := core.ParseKind(v)
	if err != nil {
		return "", badRequest("%v", err)
	}
	return k, nil
}
