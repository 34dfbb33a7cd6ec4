package api

import (
	"context"
	"net/http"
)

// Credentials is the login and register form.
type Credentials struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

type authResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

type csrfResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// CSRFToken fetches a fresh anti-forgery token for this cookie session.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	const op = "csrf token"
	data, err := c.send(ctx, op, http.MethodGet, nil, "api", "csrf-token")
	if err != nil {
		return "", err
	}
	var resp csrfResponse
	if err := decode(op, data, &resp); err != nil {
		return "", err
	}
	return resp.CSRFToken, nil
}

// Login authenticates the cookie session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "login", "login", Credentials{Email: email, Password: password})
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "register", "register", Credentials{Email: email, Password: password})
}

// authenticate treats a 2xx carrying {"success": false} as a rejection. A 2xx
// without a JSON body is accepted on status alone.
func (c *Client) authenticate(ctx context.Context, op, endpoint string, creds Credentials) error {
	data, err := c.send(ctx, op, http.MethodPost, creds, "api", endpoint)
	if err != nil {
		return err
	}
	if !looksLikeJSON(data) {
		return nil
	}
	var resp authResponse
	if err := decode(op, data, &resp); err != nil {
		return err
	}
	if resp.Success != nil && !*resp.Success {
		return &StatusError{Op: op, StatusCode: http.StatusOK, Message: resp.Message}
	}
	return nil
}

// Logout ends the server session. Callers treat it as best effort.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.send(ctx, "logout", http.MethodGet, nil, "api", "logout")
	return err
}
