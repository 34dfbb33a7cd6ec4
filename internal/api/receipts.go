package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hmeicr/hmeicr/internal/model"
)

// ListReceipts returns the user's full receipt collection.
func (c *Client) ListReceipts(ctx context.Context) ([]model.Receipt, error) {
	const op = "list receipts"
	data, err := c.send(ctx, op, http.MethodGet, nil, "api", "receipt")
	if err != nil {
		return nil, err
	}
	var receipts []model.Receipt
	if err := decode(op, data, &receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

// CreateReceipt submits a new receipt. Fields are sent as entered; the server
// is the authority on what is acceptable.
func (c *Client) CreateReceipt(ctx context.Context, in model.ReceiptInput) error {
	_, err := c.send(ctx, "create receipt", http.MethodPost, in, "api", "receipt", "create")
	return err
}

// UpdateReceipt replaces the editable fields of receipt id. Success is decided
// by status alone: the endpoint may redirect to the list, and that body is ignored.
func (c *Client) UpdateReceipt(ctx context.Context, id string, in model.ReceiptInput) error {
	seg, err := idSegment(id)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, "update receipt", http.MethodPost, in, "api", "receipt", seg, "edit")
	return err
}

// DeleteReceipt removes receipt id.
func (c *Client) DeleteReceipt(ctx context.Context, id string) error {
	seg, err := idSegment(id)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, "delete receipt", http.MethodPost, nil, "api", "receipt", seg, "delete")
	return err
}

func idSegment(id string) (string, error) {
	if strings.TrimSpace(id) == "" || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return url.PathEscape(id), nil
}
