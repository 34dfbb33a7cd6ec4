package app

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hmeicr/hmeicr/internal/model"
	"github.com/hmeicr/hmeicr/internal/render"
)

// maskedValue stands in for a typed password so the secret never enters the tree.
const maskedValue = "********"

// View builds the UI tree for the current state. Every server-supplied
// string is placed with Text or as an attribute value.
func (c *Controller) View() *html.Node {
	var body *html.Node
	switch c.screen {
	case ScreenRegister:
		body = c.registerView()
	case ScreenDashboard:
		body = c.dashboardView()
	default:
		body = c.loginView()
	}

	return render.El("div", render.A("id", "app", "class", "screen-"+c.screen.String()),
		render.El("h1", nil, render.Text("Receipts")),
		c.noticeView(),
		body,
	)
}

func (c *Controller) noticeView() *html.Node {
	n, ok := c.Notice()
	if !ok {
		return nil
	}
	class := "notice notice-info"
	if n.Kind == NoticeError {
		class = "notice notice-error"
	}
	return render.El("div", render.A("id", "notice", "class", class, "role", "alert"), render.Text(n.Message))
}

func (c *Controller) loginView() *html.Node {
	f := &c.Forms.Login
	return render.El("section", render.A("id", "login"),
		render.El("h2", nil, render.Text("Sign In")),
		render.El("form", render.A("id", "login-form"),
			c.input(&f.Email),
			c.input(&f.Password),
			render.El("button", render.A("type", "submit"), render.Text("Sign In")),
		),
		render.El("p", nil,
			render.Text("Don't have an account?"),
			render.El("button", render.A("id", "show-register", "type", "button"), render.Text("Create account")),
		),
	)
}

func (c *Controller) registerView() *html.Node {
	f := &c.Forms.Register
	return render.El("section", render.A("id", "register"),
		render.El("h2", nil, render.Text("Create Account")),
		render.El("form", render.A("id", "register-form"),
			c.input(&f.Email),
			c.input(&f.Password),
			c.input(&f.Confirm),
			render.El("button", render.A("type", "submit"), render.Text("Register")),
		),
		render.El("p", nil,
			render.El("button", render.A("id", "show-login", "type", "button"), render.Text("Back to login")),
		),
	)
}

func (c *Controller) dashboardView() *html.Node {
	snap := c.snapshot
	return render.El("section", render.A("id", "dashboard"),
		render.El("header", nil,
			render.Text("Signed in as "+c.email()),
			render.El("button", render.A("id", "logout", "type", "button"), render.Text("Logout")),
		),
		render.El("section", render.A("id", "summary"),
			render.El("h2", nil, render.Text("This Month")),
			render.El("p", render.A("id", "monthly-total"), render.Text(render.Amount(model.NewAmount(c.MonthlyTotal())))),
		),
		render.El("section", render.A("id", "add-receipt"),
			render.El("h2", nil, render.Text("Add Receipt")),
			c.receiptForm("receipt-form", &c.Forms.Receipt, "Add"),
		),
		render.El("section", render.A("id", "receipts"),
			render.El("h2", nil, render.Text("Receipts")),
			render.If(len(snap.Receipts) == 0, func() *html.Node {
				return render.El("p", render.A("class", "empty"), render.Text("No receipts yet."))
			}),
			render.If(len(snap.Receipts) > 0, func() *html.Node {
				return render.Each("ul", render.A("id", "receipt-list"), snap.Receipts, receiptItem)
			}),
		),
		c.einvoiceView(),
		render.If(c.modal == ModalEdit, c.editModal),
		render.If(c.modal == ModalConnect, c.connectModal),
	)
}

func receiptItem(r model.Receipt) *html.Node {
	return render.El("li", render.A("class", "receipt", "data-id", r.ID),
		render.El("span", render.A("class", "receipt-title"), render.Text(r.Title)),
		render.El("span", render.A("class", "receipt-amount"), render.Text(render.Amount(r.Amount))),
		render.El("span", render.A("class", "receipt-currency"), render.Text(render.Currency(r.Currency))),
		render.El("span", render.A("class", "receipt-date"), render.Text(render.Date(r.ReceiptDate))),
		render.El("span", render.A("class", "receipt-id"), render.Text("#"+r.ID)),
	)
}

func (c *Controller) einvoiceView() *html.Node {
	snap := c.snapshot
	if !snap.Connected {
		return render.El("section", render.A("id", "einvoice"),
			render.El("h2", nil, render.Text("E-Invoices")),
			render.El("p", nil, render.Text("Not connected.")),
			render.El("button", render.A("id", "open-connect", "type", "button"), render.Text("Connect e-invoice account")),
		)
	}
	return render.El("section", render.A("id", "einvoice"),
		render.El("h2", nil, render.Text("E-Invoices")),
		render.If(len(snap.Invoices) == 0, func() *html.Node {
			return render.El("p", render.A("class", "empty"), render.Text("No invoices."))
		}),
		render.If(len(snap.Invoices) > 0, func() *html.Node {
			return render.Each("ul", render.A("id", "invoice-list"), snap.Invoices, func(inv model.Invoice) *html.Node {
				return render.El("li", render.A("class", "invoice"),
					render.El("span", render.A("class", "invoice-number"), render.Text(inv.Label())),
					render.El("span", render.A("class", "invoice-amount"), render.Text(render.Amount(inv.Amount))),
				)
			})
		}),
	)
}

func (c *Controller) editModal() *html.Node {
	return render.El("dialog", render.A("id", "edit-modal", "open", ""),
		render.El("h3", nil, render.Text("Edit Receipt")),
		c.receiptForm("edit-form", &c.Forms.Edit, "Save"),
		render.El("button", render.A("id", "delete-receipt", "type", "button", "data-id", c.editingID), render.Text("Delete")),
		render.El("button", render.A("id", "cancel-edit", "type", "button"), render.Text("Cancel")),
	)
}

func (c *Controller) connectModal() *html.Node {
	f := &c.Forms.Connect
	return render.El("dialog", render.A("id", "connect-modal", "open", ""),
		render.El("h3", nil, render.Text("Connect E-Invoice")),
		render.El("form", render.A("id", "connect-form"),
			c.input(&f.Username),
			c.input(&f.Password),
			render.El("button", render.A("type", "submit"), render.Text("Connect")),
		),
		render.El("button", render.A("id", "cancel-connect", "type", "button"), render.Text("Cancel")),
	)
}

func (c *Controller) receiptForm(id string, f *ReceiptForm, submit string) *html.Node {
	return render.El("form", render.A("id", id),
		c.input(&f.Title),
		c.input(&f.Amount),
		c.input(&f.Currency),
		c.input(&f.Date),
		render.El("button", render.A("type", "submit"), render.Text(submit)),
	)
}

// input renders a field and, below it, its inline validation message.
func (c *Controller) input(f *Field) *html.Node {
	value := f.Value()
	if f.Kind == KindPassword && value != "" {
		value = maskedValue
	}
	attrs := render.A("type", f.Kind.inputType(), "name", f.Name, "aria-label", f.Label, "value", value)

	msg := c.fieldErrors[f.Name]
	if msg == "" {
		return render.El("input", attrs)
	}
	errID := strings.ReplaceAll(f.Name, "_", "-") + "-error"
	attrs = append(attrs, html.Attribute{Key: "aria-describedby", Val: errID})
	return render.El("div", render.A("class", "field"),
		render.El("input", attrs),
		render.El("p", render.A("id", errID, "class", "field-error"), render.Text(msg)),
	)
}
