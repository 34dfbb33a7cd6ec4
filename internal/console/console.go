// Package console is the interactive front end: it reads commands line by
// line, drives the controller and prints the resulting view.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/hmeicr/hmeicr/internal/app"
	"github.com/hmeicr/hmeicr/internal/render"
)

const documentTitle = "Receipts"

// ThemeStore persists the theme preference.
type ThemeStore interface {
	Theme() string
	ToggleTheme() (string, error)
}

// Console is one interactive session.
type Console struct {
	ctrl   *app.Controller
	themes ThemeStore
	in     *bufio.Scanner
	out    io.Writer

	// secret reads a password without echo. It is nil unless in is a terminal.
	secret func() ([]byte, error)
}

// New returns a console reading commands from in and writing to out.
func New(ctrl *app.Controller, themes ThemeStore, in io.Reader, out io.Writer) *Console {
	c := &Console{
		ctrl:   ctrl,
		themes: themes,
		in:     bufio.NewScanner(in),
		out:    out,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		c.secret = func() ([]byte, error) {
			b, err := term.ReadPassword(fd)
			c.printf("\n")
			return b, err
		}
	}
	return c
}

// errQuit ends the loop without error.
var errQuit = errors.New("quit")

// Run shows the view and processes commands until quit or end of input.
func (c *Console) Run(ctx context.Context) error {
	if err := c.show(); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, ok := c.prompt("> ")
		if !ok {
			return c.in.Err()
		}
		name, args := parse(line)
		if name == "" {
			continue
		}

		err := c.dispatch(ctx, name, args)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			c.printf("%v\n", err)
			continue
		}
		if err := c.show(); err != nil {
			return err
		}
	}
}

func parse(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

type command struct {
	screens []app.Screen
	args    int
	usage   string
	run     func(c *Console, ctx context.Context, args []string) error
}

var anyScreen = []app.Screen{app.ScreenLogin, app.ScreenRegister, app.ScreenDashboard}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login":    {screens: []app.Screen{app.ScreenLogin}, usage: "login", run: (*Console).login},
		"register": {screens: []app.Screen{app.ScreenLogin, app.ScreenRegister}, usage: "register", run: (*Console).register},
		"signup":   {screens: []app.Screen{app.ScreenLogin}, usage: "signup", run: (*Console).signup},
		"back":     {screens: []app.Screen{app.ScreenRegister}, usage: "back", run: (*Console).back},
		"logout":   {screens: []app.Screen{app.ScreenDashboard}, usage: "logout", run: (*Console).logout},
		"refresh":  {screens: []app.Screen{app.ScreenDashboard}, usage: "refresh", run: (*Console).refresh},
		"add":      {screens: []app.Screen{app.ScreenDashboard}, usage: "add", run: (*Console).add},
		"edit":     {screens: []app.Screen{app.ScreenDashboard}, args: 1, usage: "edit <id>", run: (*Console).edit},
		"delete":   {screens: []app.Screen{app.ScreenDashboard}, args: 1, usage: "delete <id>", run: (*Console).delete},
		"connect":  {screens: []app.Screen{app.ScreenDashboard}, usage: "connect", run: (*Console).connect},
		"theme":    {screens: anyScreen, usage: "theme", run: (*Console).theme},
		"html":     {screens: anyScreen, args: 1, usage: "html <file>", run: (*Console).html},
		"help":     {screens: anyScreen, usage: "help", run: (*Console).help},
		"quit":     {screens: anyScreen, usage: "quit", run: quit},
		"exit":     {screens: anyScreen, usage: "exit", run: quit},
	}
}

// helpOrder lists commands in the order help prints them.
var helpOrder = []string{
	"login", "register", "signup", "back", "refresh", "add", "edit", "delete",
	"connect", "logout", "theme", "html", "help", "quit",
}

func (c *Console) dispatch(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, type help for a list", name)
	}
	if !available(cmd, c.ctrl.Screen()) {
		return fmt.Errorf("%s is not available on the %s screen", name, c.ctrl.Screen())
	}
	if len(args) != cmd.args {
		return fmt.Errorf("usage: %s", cmd.usage)
	}
	return cmd.run(c, ctx, args)
}

func available(cmd command, screen app.Screen) bool {
	for _, s := range cmd.screens {
		if s == screen {
			return true
		}
	}
	return false
}

func quit(*Console, context.Context, []string) error { return errQuit }

func (c *Console) help(context.Context, []string) error {
	screen := c.ctrl.Screen()
	c.printf("Commands:\n")
	for _, name := range helpOrder {
		if cmd := commands[name]; available(cmd, screen) {
			c.printf("  %s\n", cmd.usage)
		}
	}
	return nil
}

func (c *Console) login(ctx context.Context, _ []string) error {
	f := &c.ctrl.Forms.Login
	if !c.fill(&f.Email, &f.Password) {
		return nil
	}
	c.ctrl.SubmitLogin(ctx)
	return nil
}

// register on the login screen switches to the register screen; on the
// register screen it fills in and submits the form.
func (c *Console) register(ctx context.Context, _ []string) error {
	if c.ctrl.Screen() == app.ScreenLogin {
		c.ctrl.ShowRegister()
		return nil
	}
	f := &c.ctrl.Forms.Register
	if !c.fill(&f.Email, &f.Password, &f.Confirm) {
		return nil
	}
	c.ctrl.SubmitRegister(ctx)
	return nil
}

func (c *Console) signup(context.Context, []string) error {
	c.ctrl.ShowRegister()
	return nil
}

func (c *Console) back(context.Context, []string) error {
	c.ctrl.ShowLogin()
	return nil
}

func (c *Console) logout(ctx context.Context, _ []string) error {
	c.ctrl.Logout(ctx)
	return nil
}

func (c *Console) refresh(ctx context.Context, _ []string) error {
	if err := c.ctrl.Refresh(ctx); err != nil {
		return errors.New("could not refresh receipts")
	}
	return nil
}

func (c *Console) add(ctx context.Context, _ []string) error {
	f := &c.ctrl.Forms.Receipt
	if !c.fill(&f.Title, &f.Amount, &f.Currency, &f.Date) {
		return nil
	}
	c.ctrl.SubmitReceipt(ctx)
	return nil
}

func (c *Console) edit(ctx context.Context, args []string) error {
	if !c.ctrl.OpenEdit(args[0]) {
		return nil
	}
	f := &c.ctrl.Forms.Edit
	for _, fld := range []*app.Field{&f.Title, &f.Amount, &f.Currency, &f.Date} {
		v, ok := c.prompt(fmt.Sprintf("%s [%s]: ", fld.Label, fld.Value()))
		if !ok {
			c.ctrl.CancelEdit()
			return nil
		}
		if strings.TrimSpace(v) != "" {
			fld.Set(v)
		}
	}
	c.ctrl.SubmitEdit(ctx)
	return nil
}

func (c *Console) delete(ctx context.Context, args []string) error {
	c.ctrl.Delete(ctx, args[0], app.ConfirmFunc(c.confirm))
	return nil
}

func (c *Console) connect(ctx context.Context, _ []string) error {
	c.ctrl.OpenConnect()
	f := &c.ctrl.Forms.Connect
	if !c.fill(&f.Username, &f.Password) {
		c.ctrl.CancelConnect()
		return nil
	}
	c.ctrl.SubmitConnect(ctx)
	return nil
}

func (c *Console) theme(context.Context, []string) error {
	theme, err := c.themes.ToggleTheme()
	if err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	c.printf("Theme: %s\n", theme)
	return nil
}

func (c *Console) html(_ context.Context, args []string) error {
	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("creating %s: %w", args[0], err)
	}
	if err := render.HTML(f, c.ctrl.View(), documentTitle, c.themes.Theme()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", args[0], err)
	}
	c.printf("Wrote %s\n", args[0])
	return nil
}

// fill prompts for each field in turn. It reports false at end of input.
func (c *Console) fill(fields ...*app.Field) bool {
	for _, f := range fields {
		if f.Kind == app.KindPassword && c.secret != nil {
			if !c.readSecret(f) {
				return false
			}
			continue
		}
		v, ok := c.prompt(f.Label + ": ")
		if !ok {
			return false
		}
		f.Set(v)
	}
	return true
}

// readSecret fills a password field from the terminal and wipes the read buffer.
func (c *Console) readSecret(f *app.Field) bool {
	c.printf("%s: ", f.Label)
	b, err := c.secret()
	defer func() {
		for i := range b {
			b[i] = 0
		}
	}()
	if err != nil {
		return false
	}
	f.SetBytes(b)
	return true
}

func (c *Console) confirm(question string) bool {
	answer, ok := c.prompt(question + " [y/N]: ")
	if !ok {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (c *Console) prompt(label string) (string, bool) {
	c.printf("%s", label)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimRight(c.in.Text(), "\r"), true
}

// show prints the current view, then drops the notice it displayed.
func (c *Console) show() error {
	if err := render.Terminal(c.out, c.ctrl.View()); err != nil {
		return err
	}
	c.ctrl.DismissNotice()
	return nil
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
