package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/hmeicr/hmeicr/internal/model"
)

// EInvoiceCredentials links a third-party e-invoice account.
type EInvoiceCredentials struct {
	Username string `form:"einvoice_username"`
	Password string `form:"einvoice_password"`
}

// ConnectEInvoice stores e-invoice credentials server side.
func (c *Client) ConnectEInvoice(ctx context.Context, username, password string) error {
	creds := EInvoiceCredentials{Username: username, Password: password}
	_, err := c.send(ctx, "connect e-invoice", http.MethodPost, creds, "api", "einvoice_login", "create")
	return err
}

// ListInvoices fetches the linked e-invoice feed. An account that is not
// connected answers 401, which matches ErrUnauthorized.
func (c *Client) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	const op = "list invoices"
	data, err := c.send(ctx, op, http.MethodGet, nil, "api", "einvoice", "invoice_list")
	if err != nil {
		return nil, err
	}

	// The feed is either a bare array or the carrier search envelope {"content": [...]}.
	var invoices []model.Invoice
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Content []model.Invoice `json:"content"`
		}
		if err := decode(op, data, &envelope); err != nil {
			return nil, err
		}
		return envelope.Content, nil
	}
	if err := decode(op, data, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}
