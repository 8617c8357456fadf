package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"stash/internal/app"
	"stash/internal/exitcode"
	"stash/internal/service"
)

func init() {
	Register(&LoginCmd{})
	Register(&RegisterCmd{})
	Register(&LogoutCmd{})
	Register(&WhoamiCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	username string
	password string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in and store the session" }
func (c *LoginCmd) Usage() string     { return "stash login [-u <username>] [-p <password>]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.username, "username", "u", "", "account username")
	fs.StringVarP(&c.password, "password", "p", "", "account password (prompted when omitted)")
}

func (c *LoginCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}
	if s, ok := a.Session.Current(); ok {
		if !a.Config.Quiet {
			fmt.Fprintf(out, "already logged in as %s\n", s.User.Username)
		}
		return exitcode.Success
	}

	creds, err := c.credentials(a, errOut)
	if err != nil {
		return usageError(errOut, "%v", err)
	}
	a.Logger.Debugf(ctx, "logging in as %s", creds.Username)
	token, err := a.Service.Login(ctx, creds)
	if service.IsAuthFailure(err) {
		fmt.Fprintf(errOut, "error: invalid username or password\n")
		return exitcode.AuthError
	}
	if err != nil {
		return fail(errOut, err)
	}
	if _, err := a.Session.SetCredentials(ctx, token, creds.Username); err != nil {
		fmt.Fprintf(errOut, "error: failed to save session: %v\n", err)
		return exitcode.BackendError
	}
	return ok(a, out, "ok")
}

func (c *LoginCmd) credentials(a *app.App, prompt io.Writer) (service.Credentials, error) {
	username, password := strings.TrimSpace(c.username), c.password
	var err error
	if username == "" {
		if username, err = a.ReadLine(prompt, "Username: "); err != nil {
			return service.Credentials{}, fmt.Errorf("username required")
		}
		username = strings.TrimSpace(username)
	}
	if username == "" {
		return service.Credentials{}, fmt.Errorf("username required")
	}
	if password == "" {
		if password, err = a.ReadSecret(prompt, "Password: "); err != nil || password == "" {
			return service.Credentials{}, fmt.Errorf("password required")
		}
	}
	return service.Credentials{Username: username, Password: password}, nil
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	username string
	email    string
	password string
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account" }
func (c *RegisterCmd) Usage() string {
	return "stash register [-u <username>] [-e <email>] [-p <password>]"
}
func (c *RegisterCmd) NeedsAuth() bool { return false }

func (c *RegisterCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.username, "username", "u", "", "account username")
	fs.StringVarP(&c.email, "email", "e", "", "account email")
	fs.StringVarP(&c.password, "password", "p", "", "account password (prompted when omitted)")
}

func (c *RegisterCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}
	reg := service.Registration{
		Username: strings.TrimSpace(c.username),
		Email:    strings.TrimSpace(c.email),
		Password: c.password,
	}
	var err error
	if reg.Username == "" {
		if reg.Username, err = a.ReadLine(errOut, "Username: "); err != nil {
			return usageError(errOut, "username required")
		}
		reg.Username = strings.TrimSpace(reg.Username)
	}
	if reg.Email == "" {
		if reg.Email, err = a.ReadLine(errOut, "Email: "); err != nil {
			return usageError(errOut, "email required")
		}
		reg.Email = strings.TrimSpace(reg.Email)
	}
	if reg.Password == "" {
		if reg.Password, err = a.ReadSecret(errOut, "Password: "); err != nil {
			return usageError(errOut, "password required")
		}
	}
	switch {
	case reg.Username == "":
		return usageError(errOut, "username required")
	case reg.Email == "":
		return usageError(errOut, "email required")
	case reg.Password == "":
		return usageError(errOut, "password required")
	}

	if err := a.Service.Register(ctx, reg); err != nil {
		return fail(errOut, err)
	}
	return ok(a, out, "ok")
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string                    { return "logout" }
func (c *LogoutCmd) Aliases() []string               { return nil }
func (c *LogoutCmd) Synopsis() string                { return "Clear the stored session" }
func (c *LogoutCmd) Usage() string                   { return "stash logout" }
func (c *LogoutCmd) NeedsAuth() bool                 { return false }
func (c *LogoutCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if !a.Session.IsAuthenticated() {
		return ok(a, out, "not logged in")
	}
	if err := a.Session.Logout(ctx); err != nil {
		fmt.Fprintf(errOut, "error: failed to clear session: %v\n", err)
		return exitcode.BackendError
	}
	return ok(a, out, "ok")
}

// WhoamiCmd prints the logged-in username.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string                    { return "whoami" }
func (c *WhoamiCmd) Aliases() []string               { return nil }
func (c *WhoamiCmd) Synopsis() string                { return "Print the logged-in user" }
func (c *WhoamiCmd) Usage() string                   { return "stash whoami" }
func (c *WhoamiCmd) NeedsAuth() bool                 { return true }
func (c *WhoamiCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	s, _ := a.Session.Current()
	fmt.Fprintln(out, s.User.Username)
	return exitcode.Success
}
