// Package apitest runs an in-memory stand-in for the receipts backend so the
// client can be exercised end to end in tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hmeicr/hmeicr/internal/model"
)

const sessionCookie = "session"

// Request is a recorded inbound request.
type Request struct {
	Method string
	Path   string
	Form   url.Values
	Header http.Header
}

type failure struct {
	status  int
	message string
}

type session struct {
	email string
	csrf  string
}

type account struct {
	password string
	receipts []model.Receipt
	linked   bool
	invoices []model.Invoice
}

// Server is a fake backend. It enforces CSRF on POST routes and requires a
// logged-in session for receipt and e-invoice routes, like the real one.
type Server struct {
	*httptest.Server

	// EditRedirects makes the edit endpoint answer with a redirect to the list.
	EditRedirects bool

	mu       sync.Mutex
	accounts map[string]*account
	sessions map[string]*session
	failures map[string]failure
	requests []Request
	nextID   int
}

// New starts a fake backend. Close it when done.
func New() *Server {
	s := &Server{
		accounts: make(map[string]*account),
		sessions: make(map[string]*session),
		failures: make(map[string]failure),
	}

	r := chi.NewRouter()
	r.Use(s.record, s.injectFailures)
	r.Get("/api/csrf-token", s.handleCSRFToken)
	r.Get("/api/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireCSRF)
		r.Post("/api/login", s.handleLogin)
		r.Post("/api/register", s.handleRegister)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireLogin)
		r.Get("/api/receipt", s.handleListReceipts)
		r.Get("/api/einvoice/invoice_list", s.handleListInvoices)
		r.Group(func(r chi.Router) {
			r.Use(s.requireCSRF)
			r.Post("/api/receipt/create", s.handleCreateReceipt)
			r.Post("/api/receipt/{id}/edit", s.handleEditReceipt)
			r.Post("/api/receipt/{id}/delete", s.handleDeleteReceipt)
			r.Post("/api/einvoice_login/create", s.handleConnect)
		})
	})

	s.Server = httptest.NewServer(r)
	return s
}

// AddUser registers an account directly.
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = &account{password: password}
}

// SeedReceipts stores receipts for email, assigning ids to those without one.
func (s *Server) SeedReceipts(email string, receipts ...model.Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.mustAccount(email)
	for _, rc := range receipts {
		if rc.ID == "" {
			rc.ID = s.newID()
		}
		acct.receipts = append(acct.receipts, rc)
	}
}

// LinkEInvoice marks email's e-invoice account as connected with the given feed.
func (s *Server) LinkEInvoice(email string, invoices ...model.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.mustAccount(email)
	acct.linked = true
	acct.invoices = invoices
}

// Receipts returns the stored receipts for email.
func (s *Server) Receipts(email string) []model.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok {
		return nil
	}
	return append([]model.Receipt(nil), acct.receipts...)
}

// Fail makes every request to method+path answer status with message until
// Recover is called.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// Recover removes an injected failure.
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Requests returns every request seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests hit method+path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request to method+path.
func (s *Server) Last(method, path string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

func (s *Server) mustAccount(email string) *account {
	acct, ok := s.accounts[email]
	if !ok {
		acct = &account{}
		s.accounts[email] = acct
	}
	return acct
}

func (s *Server) newID() string {
	s.nextID++
	return "r" + strconv.Itoa(s.nextID)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		form, _ := url.ParseQuery(string(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Form:   form,
			Header: r.Header.Clone(),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if ok {
			writeJSON(w, f.status, map[string]any{"success": false, "message": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentSession returns the caller's session, creating an anonymous one
// (and its cookie) when create is set.
func (s *Server) currentSession(w http.ResponseWriter, r *http.Request, create bool) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.sessions[c.Value]; ok {
			return sess
		}
	}
	if !create {
		return nil
	}
	sid := uuid.NewString()
	sess := &session{}
	s.sessions[sid] = sess
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sid, Path: "/", HttpOnly: true})
	return sess
}

func (s *Server) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.currentSession(w, r, false)
		token := r.Header.Get("X-CSRFToken")
		if sess == nil || sess.csrf == "" || token != sess.csrf {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "The CSRF token is missing."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.currentSession(w, r, false)
		if sess == nil || sess.email == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(w, r, true)
	s.mu.Lock()
	sess.csrf = uuid.NewString()
	token := sess.csrf
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	sess := s.currentSession(w, r, false)
	s.mu.Lock()
	acct, ok := s.accounts[email]
	valid := ok && acct.password == password
	if valid {
		sess.email = email
	}
	s.mu.Unlock()

	if !valid {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	s.mu.Lock()
	_, exists := s.accounts[email]
	if !exists && email != "" && len(password) >= 8 {
		s.accounts[email] = &account{password: password}
	}
	s.mu.Unlock()

	switch {
	case exists:
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "Email already registered"})
	case email == "" || len(password) < 8:
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Password must be at least 8 characters long"})
	default:
		writeJSON(w, http.StatusCreated, map[string]any{"success": true})
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// account returns the logged-in account; requireLogin has already run.
func (s *Server) account(w http.ResponseWriter, r *http.Request) *account {
	sess := s.currentSession(w, r, false)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mustAccount(sess.email)
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	s.mu.Lock()
	receipts := append([]model.Receipt{}, acct.receipts...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, receipts)
}

// parseReceipt applies the backend's field rules and returns the user-facing
// rejection message, if any.
func parseReceipt(r *http.Request) (model.Receipt, string) {
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		return model.Receipt{}, "Title is required"
	}
	amount := model.ParseAmount(r.FormValue("amount"))
	if !amount.Valid || amount.Value.IsNegative() {
		return model.Receipt{}, "Amount must be a positive number"
	}
	currency := strings.ToUpper(strings.TrimSpace(r.FormValue("currency")))
	if currency == "" {
		return model.Receipt{}, "Currency is required"
	}
	date, err := model.ParseDate(r.FormValue("receipt_date"))
	if err != nil || len(strings.TrimSpace(r.FormValue("receipt_date"))) != len(model.DateLayout) {
		return model.Receipt{}, "Date must be in YYYY-MM-DD format"
	}
	return model.Receipt{Title: title, Amount: amount, Currency: currency, ReceiptDate: date}, ""
}

func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	rc, msg := parseReceipt(r)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": msg})
		return
	}
	acct := s.account(w, r)
	s.mu.Lock()
	rc.ID = s.newID()
	acct.receipts = append(acct.receipts, rc)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": rc.ID})
}

func (s *Server) handleEditReceipt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rc, msg := parseReceipt(r)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": msg})
		return
	}

	acct := s.account(w, r)
	s.mu.Lock()
	found := false
	for i := range acct.receipts {
		if acct.receipts[i].ID == id {
			rc.ID = id
			acct.receipts[i] = rc
			found = true
		}
	}
	s.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Receipt not found"})
		return
	}
	if s.EditRedirects {
		http.Redirect(w, r, "/api/receipt", http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	acct := s.account(w, r)

	s.mu.Lock()
	kept := acct.receipts[:0]
	found := false
	for _, rc := range acct.receipts {
		if rc.ID == id {
			found = true
			continue
		}
		kept = append(kept, rc)
	}
	acct.receipts = kept
	s.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Receipt not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("einvoice_username") == "" || r.FormValue("einvoice_password") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "E-invoice credentials are required"})
		return
	}
	acct := s.account(w, r)
	s.mu.Lock()
	acct.linked = true
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	s.mu.Lock()
	linked := acct.linked
	invoices := append([]model.Invoice{}, acct.invoices...)
	s.mu.Unlock()

	if !linked {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "E-invoice account not connected"})
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
