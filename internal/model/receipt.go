package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Receipt is a user-entered expense record. IDs are assigned by the server.
type Receipt struct {
	ID          string
	Title       string
	Amount      Amount
	Currency    string
	ReceiptDate Date
}

// UnmarshalJSON decodes both plain ids and Mongo documents ("_id", optionally
// wrapped as {"$oid": ...}).
func (r *Receipt) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          json.RawMessage `json:"id"`
		MongoID     json.RawMessage `json:"_id"`
		Title       string          `json:"title"`
		Amount      Amount          `json:"amount"`
		Currency    string          `json:"currency"`
		ReceiptDate Date            `json:"receipt_date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding receipt: %w", err)
	}

	id := decodeID(raw.ID)
	if id == "" {
		id = decodeID(raw.MongoID)
	}

	*r = Receipt{
		ID:          id,
		Title:       raw.Title,
		Amount:      raw.Amount,
		Currency:    raw.Currency,
		ReceiptDate: raw.ReceiptDate,
	}
	return nil
}

// MarshalJSON writes the backend's field names.
func (r Receipt) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Amount      Amount `json:"amount"`
		Currency    string `json:"currency"`
		ReceiptDate Date   `json:"receipt_date"`
	}{r.ID, r.Title, r.Amount, r.Currency, r.ReceiptDate})
}

func decodeID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var oid struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(raw, &oid); err == nil {
		return oid.OID
	}
	return ""
}

// ReceiptInput carries the editable receipt fields exactly as entered.
// It is used for both create and update (full replace).
type ReceiptInput struct {
	Title       string `form:"title"`
	Amount      string `form:"amount"`
	Currency    string `form:"currency"`
	ReceiptDate string `form:"receipt_date"`
}

// InputFrom seeds an input from an existing receipt, reformatting the stored
// date to the calendar-date text form.
func InputFrom(r Receipt) ReceiptInput {
	var amount string
	if r.Amount.Valid {
		amount = r.Amount.Value.StringFixed(2)
	}
	return ReceiptInput{
		Title:       r.Title,
		Amount:      amount,
		Currency:    r.Currency,
		ReceiptDate: r.ReceiptDate.String(),
	}
}

// Invoice is one entry of the linked e-invoice feed.
type Invoice struct {
	Number string `json:"invNum"`
	Amount Amount `json:"amount"`
}

// Label returns the invoice number, or a generic label when the feed omits it.
func (i Invoice) Label() string {
	if i.Number == "" {
		return "Invoice"
	}
	return i.Number
}
