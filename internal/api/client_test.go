package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmeicr/hmeicr/internal/apitest"
	"github.com/hmeicr/hmeicr/internal/model"
)

const (
	testEmail    = "user@example.com"
	testPassword = "hunter22"
)

// tokenHolder mimics the session store: the client reads whatever token was
// last fetched.
type tokenHolder struct{ token string }

func (h *tokenHolder) CSRFToken() string { return h.token }

func newTestClient(t *testing.T, srv *apitest.Server) (*Client, *tokenHolder) {
	t.Helper()
	holder := &tokenHolder{}
	c, err := New(srv.URL, WithTokenSource(holder))
	require.NoError(t, err)
	return c, holder
}

// loggedIn returns a client whose cookie session is authenticated.
func loggedIn(t *testing.T, srv *apitest.Server) *Client {
	t.Helper()
	srv.AddUser(testEmail, testPassword)
	c, holder := newTestClient(t, srv)
	ctx := context.Background()

	token, err := c.CSRFToken(ctx)
	require.NoError(t, err)
	holder.token = token
	require.NoError(t, c.Login(ctx, testEmail, testPassword))
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:5000", "ftp://example.com", "http://"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
	}

	c, err := New(" http://localhost:5000 ")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/", c.BaseURL())
}

func TestLoginSendsCSRFAndForm(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	loggedIn(t, srv)

	req, ok := srv.Last(http.MethodPost, "/api/login")
	require.True(t, ok)
	assert.Equal(t, testEmail, req.Form.Get("email"))
	assert.Equal(t, testPassword, req.Form.Get("password"))
	assert.NotEmpty(t, req.Header.Get("X-CSRFToken"))
	assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
	assert.Contains(t, req.Header.Get("User-Agent"), "hmeicr/")
}

func TestLoginWithoutTokenIsRejected(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser(testEmail, testPassword)

	c, _ := newTestClient(t, srv)
	err := c.Login(context.Background(), testEmail, testPassword)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "The CSRF token is missing.", se.Message)
}

func TestLoginWrongPassword(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser(testEmail, testPassword)

	c, holder := newTestClient(t, srv)
	ctx := context.Background()
	token, err := c.CSRFToken(ctx)
	require.NoError(t, err)
	holder.token = token

	err = c.Login(ctx, testEmail, "wrong-password")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Invalid email or password", se.Message)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticateSuccessFalse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "message": "Account locked"}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	err = c.Login(context.Background(), testEmail, testPassword)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Account locked", se.Message)
}

func TestAuthenticateNonJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>welcome</html>"))
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)
	assert.NoError(t, c.Register(context.Background(), testEmail, testPassword))
}

func TestRegisterDuplicate(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser(testEmail, testPassword)

	c, holder := newTestClient(t, srv)
	ctx := context.Background()
	token, err := c.CSRFToken(ctx)
	require.NoError(t, err)
	holder.token = token

	err = c.Register(ctx, testEmail, "another-password")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.StatusCode)
	assert.Equal(t, "Email already registered", se.Message)
}

func TestCreateSendsEmptyFieldsUnchanged(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := loggedIn(t, srv)

	err := c.CreateReceipt(context.Background(), model.ReceiptInput{
		Title:       "",
		Amount:      "3.50",
		Currency:    "USD",
		ReceiptDate: "2024-03-05",
	})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Title is required", se.Message)

	req, ok := srv.Last(http.MethodPost, "/api/receipt/create")
	require.True(t, ok)
	require.Contains(t, req.Form, "title")
	assert.Equal(t, "", req.Form.Get("title"))
	assert.Equal(t, "3.50", req.Form.Get("amount"))
}

func TestReceiptLifecycle(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := loggedIn(t, srv)
	ctx := context.Background()

	require.NoError(t, c.CreateReceipt(ctx, model.ReceiptInput{
		Title: "Coffee", Amount: "3.50", Currency: "USD", ReceiptDate: "2024-03-05",
	}))

	receipts, err := c.ListReceipts(ctx)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	id := receipts[0].ID
	assert.NotEmpty(t, id)
	assert.Equal(t, "Coffee", receipts[0].Title)
	assert.Equal(t, "3.5", receipts[0].Amount.String())
	assert.True(t, receipts[0].ReceiptDate.Equal(model.NewDate(2024, time.March, 5)))

	require.NoError(t, c.UpdateReceipt(ctx, id, model.ReceiptInput{
		Title: "Tea", Amount: "2.00", Currency: "EUR", ReceiptDate: "2024-03-06",
	}))
	receipts, err = c.ListReceipts(ctx)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, "Tea", receipts[0].Title)
	assert.Equal(t, "EUR", receipts[0].Currency)

	require.NoError(t, c.DeleteReceipt(ctx, id))
	receipts, err = c.ListReceipts(ctx)
	require.NoError(t, err)
	assert.Empty(t, receipts)
}

func TestUpdateAcceptsRedirect(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.EditRedirects = true
	c := loggedIn(t, srv)
	srv.SeedReceipts(testEmail, model.Receipt{
		ID: "abc", Title: "Lunch", Amount: model.ParseAmount("12"), Currency: "USD",
		ReceiptDate: model.NewDate(2024, time.January, 2),
	})

	err := c.UpdateReceipt(context.Background(), "abc", model.ReceiptInput{
		Title: "Dinner", Amount: "20", Currency: "USD", ReceiptDate: "2024-01-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dinner", srv.Receipts(testEmail)[0].Title)
}

func TestInvalidIDNeverHitsNetwork(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := loggedIn(t, srv)
	before := len(srv.Requests())

	for _, id := range []string{"", "  ", ".", ".."} {
		err := c.DeleteReceipt(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidID, "id %q", id)
		err = c.UpdateReceipt(context.Background(), id, model.ReceiptInput{})
		assert.ErrorIs(t, err, ErrInvalidID, "id %q", id)
	}
	assert.Len(t, srv.Requests(), before)
}

func TestIDIsPathEscaped(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := loggedIn(t, srv)

	err := c.DeleteReceipt(context.Background(), "a/b")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, 1, srv.Count(http.MethodPost, "/api/receipt/a/b/delete"))
}

func TestListReceiptsUnauthorized(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c, _ := newTestClient(t, srv)

	_, err := c.ListReceipts(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestStatusErrorMessage(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := loggedIn(t, srv)
	srv.Fail(http.MethodGet, "/api/receipt", http.StatusInternalServerError, "Database unavailable")

	_, err := c.ListReceipts(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "Database unavailable", se.Message)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestStatusErrorWithoutMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)
	_, err = c.ListReceipts(context.Background())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Empty(t, se.Message)
	assert.Equal(t, "list receipts: 502 Bad Gateway", se.Error())
}

func TestNetworkError(t *testing.T) {
	srv := apitest.New()
	c, _ := newTestClient(t, srv)
	srv.Close()

	_, err := c.ListReceipts(context.Background())
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "list receipts", ne.Op)

	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestListInvoices(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := loggedIn(t, srv)
	ctx := context.Background()

	_, err := c.ListInvoices(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)

	srv.LinkEInvoice(testEmail,
		model.Invoice{Number: "AB-12345678", Amount: model.ParseAmount("120")},
		model.Invoice{Amount: model.ParseAmount("5.5")},
	)
	invoices, err := c.ListInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "AB-12345678", invoices[0].Label())
	assert.Equal(t, "Invoice", invoices[1].Label())
}

func TestListInvoicesEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content": [{"invNum": "XY-1", "amount": 42}]}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)
	invoices, err := c.ListInvoices(context.Background())
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "XY-1", invoices[0].Number)
	assert.Equal(t, "42", invoices[0].Amount.String())
}

func TestConnectEInvoice(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := loggedIn(t, srv)
	ctx := context.Background()

	require.NoError(t, c.ConnectEInvoice(ctx, "0912345678", "carrier-secret"))
	req, ok := srv.Last(http.MethodPost, "/api/einvoice_login/create")
	require.True(t, ok)
	assert.Equal(t, "0912345678", req.Form.Get("einvoice_username"))

	invoices, err := c.ListInvoices(ctx)
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestLogoutEndsSession(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := loggedIn(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Logout(ctx))
	_, err := c.ListReceipts(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetCarriesNoCSRFHeader(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := loggedIn(t, srv)

	_, err := c.ListReceipts(context.Background())
	require.NoError(t, err)
	req, ok := srv.Last(http.MethodGet, "/api/receipt")
	require.True(t, ok)
	assert.Empty(t, req.Header.Get("X-CSRFToken"))
}
