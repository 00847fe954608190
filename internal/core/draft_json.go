package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// draftJSON is the wire shape of a Draft. Every field is kept raw so that a
// number where text is expected, or text where a number is expected, is
// reported by Parse instead of failing the decode.
type draftJSON struct {
	Date             json.RawMessage `json:"date"`
	Kind             json.RawMessage `json:"kind"`
	Category         json.RawMessage `json:"category"`
	Subcategory      json.RawMessage `json:"subcategory"`
	PaymentMethod    json.RawMessage `json:"payment_method"`
	Amount           json.RawMessage `json:"amount"`
	Note             json.RawMessage `json:"note"`
	InstallmentCount json.RawMessage `json:"installment_count"`
}

// UnmarshalJSON never rejects a JSON object: bad values are kept as text and
// reported by Parse. Anything other than an object is an error.
func (d *Draft) UnmarshalJSON(b []byte) error {
	var raw draftJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = Draft{
		Date:             rawText(raw.Date),
		Kind:             rawText(raw.Kind),
		Category:         rawText(raw.Category),
		Subcategory:      rawText(raw.Subcategory),
		PaymentMethod:    rawText(raw.PaymentMethod),
		Amount:           rawText(raw.Amount),
		Note:             rawText(raw.Note),
		InstallmentCount: rawInt(raw.InstallmentCount),
	}
	return nil
}

// Drafts is a JSON array of drafts decoded element by element. An element
// that is not an object becomes a Draft whose Parse reports it, so one bad
// row never rejects the whole array.
type Drafts []Draft

func (ds *Drafts) UnmarshalJSON(b []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(b, &elems); err != nil {
		return err
	}
	out := make(Drafts, len(elems))
	for i, elem := range elems {
		if err := json.Unmarshal(elem, &out[i]); err != nil {
			out[i] = Draft{decodeErr: err}
		}
	}
	*ds = out
	return nil
}

// rawText returns a JSON string's content or any other JSON value's literal
// text. null and absent values give "".
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// rawInt parses an optional integer. A value that is not an integer maps to
// 0, which installment validation rejects.
func rawInt(raw json.RawMessage) *int {
	text := strings.TrimSpace(rawText(raw))
	if text == "" {
		return nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		n = 0
	}
	return &n
}
