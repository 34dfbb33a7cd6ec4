package app

import "github.com/hmeicr/hmeicr/internal/model"

// FieldKind selects how a field is shown.
type FieldKind int

const (
	KindText FieldKind = iota
	KindEmail
	KindPassword
	KindNumber
	KindDate
)

func (k FieldKind) inputType() string {
	switch k {
	case KindEmail:
		return "email"
	case KindPassword:
		return "password"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// Field is one form input. The value is kept in a byte slice so it can be
// overwritten in place before it is dropped.
type Field struct {
	Name  string
	Label string
	Kind  FieldKind
	value []byte
}

func newField(name, label string, kind FieldKind) Field {
	return Field{Name: name, Label: label, Kind: kind}
}

// Value returns the current input.
func (f *Field) Value() string {
	return string(f.value)
}

// Set replaces the input, wiping the previous value first.
func (f *Field) Set(s string) {
	f.Wipe()
	f.value = append(f.value, s...)
}

// SetBytes replaces the input with a copy of b. The caller may wipe b afterwards.
func (f *Field) SetBytes(b []byte) {
	f.Wipe()
	f.value = append(f.value, b...)
}

// Wipe overwrites the stored bytes and then empties the field.
func (f *Field) Wipe() {
	for i := range f.value {
		f.value[i] = '0'
	}
	f.value = f.value[:0]
}

// LoginForm is the sign-in screen's input.
type LoginForm struct {
	Email    Field
	Password Field
}

// RegisterForm is the account creation screen's input.
type RegisterForm struct {
	Email    Field
	Password Field
	Confirm  Field
}

// ReceiptForm holds receipt fields as typed, for both create and edit.
type ReceiptForm struct {
	Title    Field
	Amount   Field
	Currency Field
	Date     Field
}

// Input returns the form contents unchanged, ready to submit.
func (f *ReceiptForm) Input() model.ReceiptInput {
	return model.ReceiptInput{
		Title:       f.Title.Value(),
		Amount:      f.Amount.Value(),
		Currency:    f.Currency.Value(),
		ReceiptDate: f.Date.Value(),
	}
}

// Seed fills the form from in.
func (f *ReceiptForm) Seed(in model.ReceiptInput) {
	f.Title.Set(in.Title)
	f.Amount.Set(in.Amount)
	f.Currency.Set(in.Currency)
	f.Date.Set(in.ReceiptDate)
}

// ConnectForm links an e-invoice account.
type ConnectForm struct {
	Username Field
	Password Field
}

// Forms groups every input the controller owns.
type Forms struct {
	Login    LoginForm
	Register RegisterForm
	Receipt  ReceiptForm
	Edit     ReceiptForm
	Connect  ConnectForm
}

func newForms() Forms {
	return Forms{
		Login: LoginForm{
			Email:    newField("email", "Email", KindEmail),
			Password: newField("password", "Password", KindPassword),
		},
		Register: RegisterForm{
			Email:    newField("email", "Email", KindEmail),
			Password: newField("password", "Password", KindPassword),
			Confirm:  newField("confirm_password", "Confirm Password", KindPassword),
		},
		Receipt: newReceiptForm(),
		Edit:    newReceiptForm(),
		Connect: ConnectForm{
			Username: newField("einvoice_username", "E-invoice Username", KindText),
			Password: newField("einvoice_password", "E-invoice Password", KindPassword),
		},
	}
}

func newReceiptForm() ReceiptForm {
	return ReceiptForm{
		Title:    newField("title", "Title", KindText),
		Amount:   newField("amount", "Amount", KindNumber),
		Currency: newField("currency", "Currency", KindText),
		Date:     newField("receipt_date", "Date", KindDate),
	}
}

// fields lists every field for bulk wiping.
func (f *Forms) fields() []*Field {
	return []*Field{
		&f.Login.Email, &f.Login.Password,
		&f.Register.Email, &f.Register.Password, &f.Register.Confirm,
		&f.Receipt.Title, &f.Receipt.Amount, &f.Receipt.Currency, &f.Receipt.Date,
		&f.Edit.Title, &f.Edit.Amount, &f.Edit.Currency, &f.Edit.Date,
		&f.Connect.Username, &f.Connect.Password,
	}
}

func (f *ReceiptForm) wipe() {
	for _, fld := range []*Field{&f.Title, &f.Amount, &f.Currency, &f.Date} {
		fld.Wipe()
	}
}

// WipeAll clears every field.
func (f *Forms) WipeAll() {
	for _, fld := range f.fields() {
		fld.Wipe()
	}
}
