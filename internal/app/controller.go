// Package app is the view/state controller: it owns the visible screen, the
// form inputs and the last receipt snapshot, and turns them into a UI tree.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hmeicr/hmeicr/internal/api"
	"github.com/hmeicr/hmeicr/internal/auditlog"
	"github.com/hmeicr/hmeicr/internal/model"
	"github.com/hmeicr/hmeicr/internal/session"
	"github.com/hmeicr/hmeicr/internal/validate"
)

// Screen is the visible page.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenRegister
	ScreenDashboard
)

func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenRegister:
		return "register"
	case ScreenDashboard:
		return "dashboard"
	default:
		return fmt.Sprintf("Screen(%d)", int(s))
	}
}

// Modal is the dialog open over the dashboard, if any.
type Modal int

const (
	ModalNone Modal = iota
	ModalEdit
	ModalConnect
)

// NoticeKind distinguishes confirmations from failures.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeError
)

// Notice is a blocking message shown once after an action.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// User-facing messages.
const (
	MsgNetworkError       = "Network error"
	MsgRegistered         = "Registration successful! Please login."
	MsgConnected          = "E-invoice account connected"
	MsgReceiptNotFound    = "Receipt not found"
	MsgStaleList          = "Receipts could not be reloaded; the list may be out of date"
	MsgUnexpected         = "Something went wrong"
	deleteConfirmQuestion = "Are you sure you want to delete this receipt?"
)

// Backend is the receipt and e-invoice part of the API client.
type Backend interface {
	ListReceipts(ctx context.Context) ([]model.Receipt, error)
	CreateReceipt(ctx context.Context, in model.ReceiptInput) error
	UpdateReceipt(ctx context.Context, id string, in model.ReceiptInput) error
	DeleteReceipt(ctx context.Context, id string) error
	ConnectEInvoice(ctx context.Context, username, password string) error
	ListInvoices(ctx context.Context) ([]model.Invoice, error)
}

// Sessions is the session store.
type Sessions interface {
	Session() session.Session
	Login(ctx context.Context, email, password string) (session.Session, error)
	Register(ctx context.Context, email, password string) error
	Logout(ctx context.Context)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(question string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(question string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(question string) bool { return f(question) }

// Options wires a Controller.
type Options struct {
	Backend  Backend
	Sessions Sessions
	Audit    auditlog.Recorder
	Logger   *zap.Logger
	Now      func() time.Time
}

// Snapshot is the last successfully fetched server state. It is replaced
// wholesale on every refresh and never patched.
type Snapshot struct {
	Receipts  []model.Receipt
	Connected bool
	Invoices  []model.Invoice
}

// Controller drives the client. It is used from a single goroutine.
type Controller struct {
	Forms Forms

	backend  Backend
	sessions Sessions
	audit    auditlog.Recorder
	logger   *zap.Logger
	now      func() time.Time

	screen      Screen
	modal       Modal
	editingID   string
	notice      *Notice
	fieldErrors map[string]string
	snapshot    Snapshot
}

// New returns a controller on the login screen.
func New(opts Options) *Controller {
	c := &Controller{
		Forms:       newForms(),
		backend:     opts.Backend,
		sessions:    opts.Sessions,
		audit:       opts.Audit,
		logger:      opts.Logger,
		now:         opts.Now,
		screen:      ScreenLogin,
		fieldErrors: map[string]string{},
	}
	if c.audit == nil {
		c.audit = auditlog.Discard
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.Named("app")
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Screen returns the visible screen.
func (c *Controller) Screen() Screen { return c.screen }

// Modal returns the open dialog.
func (c *Controller) Modal() Modal { return c.modal }

// EditingID returns the receipt open in the edit dialog.
func (c *Controller) EditingID() string { return c.editingID }

// Snapshot returns the current receipt snapshot.
func (c *Controller) Snapshot() Snapshot { return c.snapshot }

// Notice returns the pending notice, if any.
func (c *Controller) Notice() (Notice, bool) {
	if c.notice == nil {
		return Notice{}, false
	}
	return *c.notice, true
}

// DismissNotice clears the pending notice once it has been shown.
func (c *Controller) DismissNotice() { c.notice = nil }

// FieldError returns the inline validation message for the named field on
// the current screen.
func (c *Controller) FieldError(name string) string { return c.fieldErrors[name] }

// ShowRegister switches to the register screen.
func (c *Controller) ShowRegister() {
	if c.screen != ScreenLogin {
		return
	}
	c.clearFieldErrors()
	c.screen = ScreenRegister
}

// ShowLogin returns from the register screen.
func (c *Controller) ShowLogin() {
	if c.screen != ScreenRegister {
		return
	}
	c.clearFieldErrors()
	c.screen = ScreenLogin
}

// SubmitLogin validates the login form and signs in. On success the
// dashboard is shown and a fresh snapshot fetched.
func (c *Controller) SubmitLogin(ctx context.Context) bool {
	if c.screen != ScreenLogin {
		return false
	}
	f := &c.Forms.Login
	c.clearFieldErrors()
	ok := c.check(f.Email.Name, validate.Email(f.Email.Value()))
	ok = c.check(f.Password.Name, validate.LoginPassword(f.Password.Value())) && ok
	if !ok {
		return false
	}

	email := f.Email.Value()
	_, err := c.sessions.Login(ctx, email, f.Password.Value())
	c.audit.Record(auditlog.EventLogin, email, err, "")
	if err != nil {
		c.fail("login", err)
		return false
	}

	f.Email.Wipe()
	f.Password.Wipe()
	c.screen = ScreenDashboard
	c.reload(ctx)
	return true
}

// SubmitRegister validates the register form and creates the account. On
// success the login screen is shown with a confirmation.
func (c *Controller) SubmitRegister(ctx context.Context) bool {
	if c.screen != ScreenRegister {
		return false
	}
	f := &c.Forms.Register
	c.clearFieldErrors()
	ok := c.check(f.Email.Name, validate.Email(f.Email.Value()))
	ok = c.check(f.Password.Name, validate.Password(f.Password.Value())) && ok
	ok = c.check(f.Confirm.Name, validate.PasswordsMatch(f.Password.Value(), f.Confirm.Value())) && ok
	if !ok {
		return false
	}

	email := f.Email.Value()
	err := c.sessions.Register(ctx, email, f.Password.Value())
	c.audit.Record(auditlog.EventRegister, email, err, "")
	if err != nil {
		c.fail("register", err)
		return false
	}

	f.Email.Wipe()
	f.Password.Wipe()
	f.Confirm.Wipe()
	c.screen = ScreenLogin
	c.notice = &Notice{Kind: NoticeInfo, Message: MsgRegistered}
	return true
}

// Logout signs out from the dashboard. Local state is cleared even when the
// server cannot be reached.
func (c *Controller) Logout(ctx context.Context) {
	if c.screen != ScreenDashboard {
		return
	}
	email := c.sessions.Session().Email
	c.sessions.Logout(ctx)
	c.audit.Record(auditlog.EventLogout, email, nil, "")

	c.Forms.WipeAll()
	c.clearFieldErrors()
	c.notice = nil
	c.snapshot = Snapshot{}
	c.modal = ModalNone
	c.editingID = ""
	c.screen = ScreenLogin
}

// Refresh replaces the snapshot with the server's current receipts and
// re-probes the e-invoice connection. Both requests run concurrently. A
// failed receipt fetch keeps the previous receipts and is returned; probe
// failures other than 401 are only logged.
func (c *Controller) Refresh(ctx context.Context) error {
	var (
		receipts []model.Receipt
		invoices []model.Invoice
		probeErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		receipts, err = c.backend.ListReceipts(ctx)
		return err
	})
	g.Go(func() error {
		invoices, probeErr = c.backend.ListInvoices(ctx)
		return nil
	})
	listErr := g.Wait()

	switch {
	case probeErr == nil:
		c.snapshot.Connected = true
		c.snapshot.Invoices = invoices
	case errors.Is(probeErr, api.ErrUnauthorized):
		c.snapshot.Connected = false
		c.snapshot.Invoices = nil
	default:
		c.logger.Warn("probing e-invoice connection", zap.Error(probeErr))
	}

	if listErr != nil {
		c.logger.Warn("fetching receipts", zap.Error(listErr))
		return fmt.Errorf("refreshing receipts: %w", listErr)
	}
	c.snapshot.Receipts = receipts
	return nil
}

// MonthlyTotal sums the snapshot's amounts dated in the current calendar
// month. It is recomputed from the full snapshot on every call.
func (c *Controller) MonthlyTotal() decimal.Decimal {
	now := c.now()
	total := decimal.Zero
	for _, r := range c.snapshot.Receipts {
		if r.ReceiptDate.InMonth(now.Year(), now.Month()) {
			total = total.Add(r.Amount.OrZero())
		}
	}
	return total
}

// SubmitReceipt creates a receipt from the add form exactly as typed; the
// server decides what is acceptable.
func (c *Controller) SubmitReceipt(ctx context.Context) bool {
	if c.screen != ScreenDashboard {
		return false
	}
	f := &c.Forms.Receipt
	err := c.backend.CreateReceipt(ctx, f.Input())
	c.audit.Record(auditlog.EventReceiptCreate, c.email(), err, "")
	if err != nil {
		c.fail("create receipt", err)
		return false
	}
	f.wipe()
	c.reload(ctx)
	return true
}

// OpenEdit opens the edit dialog seeded from the snapshot copy of receipt id.
func (c *Controller) OpenEdit(id string) bool {
	if c.screen != ScreenDashboard {
		return false
	}
	for _, r := range c.snapshot.Receipts {
		if r.ID == id {
			c.Forms.Edit.Seed(model.InputFrom(r))
			c.modal = ModalEdit
			c.editingID = id
			return true
		}
	}
	c.notice = &Notice{Kind: NoticeError, Message: MsgReceiptNotFound}
	return false
}

// SubmitEdit sends the edit dialog as a full replace of the receipt.
func (c *Controller) SubmitEdit(ctx context.Context) bool {
	if c.modal != ModalEdit {
		return false
	}
	id := c.editingID
	err := c.backend.UpdateReceipt(ctx, id, c.Forms.Edit.Input())
	c.audit.Record(auditlog.EventReceiptUpdate, c.email(), err, "id="+id)
	if err != nil {
		c.fail("update receipt", err)
		return false
	}
	c.CancelEdit()
	c.reload(ctx)
	return true
}

// CancelEdit closes the edit dialog without saving.
func (c *Controller) CancelEdit() {
	if c.modal != ModalEdit {
		return
	}
	c.Forms.Edit.wipe()
	c.modal = ModalNone
	c.editingID = ""
}

// Delete removes receipt id once confirm approves.
func (c *Controller) Delete(ctx context.Context, id string, confirm Confirmer) bool {
	if c.screen != ScreenDashboard {
		return false
	}
	if confirm == nil || !confirm.Confirm(deleteConfirmQuestion) {
		return false
	}
	err := c.backend.DeleteReceipt(ctx, id)
	c.audit.Record(auditlog.EventReceiptDelete, c.email(), err, "id="+id)
	if err != nil {
		c.fail("delete receipt", err)
		return false
	}
	if c.modal == ModalEdit && c.editingID == id {
		c.CancelEdit()
	}
	c.reload(ctx)
	return true
}

// OpenConnect opens the e-invoice connect dialog.
func (c *Controller) OpenConnect() bool {
	if c.screen != ScreenDashboard {
		return false
	}
	c.CancelEdit()
	c.modal = ModalConnect
	return true
}

// CancelConnect closes the connect dialog and drops what was typed.
func (c *Controller) CancelConnect() {
	if c.modal != ModalConnect {
		return
	}
	c.Forms.Connect.Username.Wipe()
	c.Forms.Connect.Password.Wipe()
	c.modal = ModalNone
}

// SubmitConnect stores e-invoice credentials server side and re-probes.
func (c *Controller) SubmitConnect(ctx context.Context) bool {
	if c.modal != ModalConnect {
		return false
	}
	f := &c.Forms.Connect
	err := c.backend.ConnectEInvoice(ctx, f.Username.Value(), f.Password.Value())
	c.audit.Record(auditlog.EventEInvoiceConnect, c.email(), err, "")
	if err != nil {
		c.fail("connect e-invoice", err)
		return false
	}
	c.CancelConnect()
	c.notice = &Notice{Kind: NoticeInfo, Message: MsgConnected}
	c.reload(ctx)
	return true
}

// reload refreshes after a successful action. A failed fetch leaves the old
// list on screen, so it is flagged unless another notice is already pending.
func (c *Controller) reload(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil && c.notice == nil {
		c.notice = &Notice{Kind: NoticeInfo, Message: MsgStaleList}
	}
}

func (c *Controller) email() string {
	return c.sessions.Session().Email
}

// check records r as the field's inline error and reports validity.
func (c *Controller) check(field string, r validate.Result) bool {
	if !r.Valid {
		c.fieldErrors[field] = r.Message
	}
	return r.Valid
}

func (c *Controller) clearFieldErrors() {
	clear(c.fieldErrors)
}

// fail turns err into the blocking notice. Server rejections show the
// server's message as is; transport failures get a generic message.
func (c *Controller) fail(op string, err error) {
	c.logger.Info("action failed", zap.String("op", op), zap.Error(err))

	var (
		se *api.StatusError
		ne *api.NetworkError
	)
	msg := MsgUnexpected
	switch {
	case errors.As(err, &ne):
		msg = MsgNetworkError
	case errors.As(err, &se) && se.Message != "":
		msg = se.Message
	case errors.As(err, &se):
		msg = fmt.Sprintf("Request failed (%d)", se.StatusCode)
	case errors.Is(err, api.ErrInvalidID):
		msg = MsgReceiptNotFound
	}
	c.notice = &Notice{Kind: NoticeError, Message: msg}
}
