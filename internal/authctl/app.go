// Package authctl implements an operator CLI that manages accounts through
// the auth service's gRPC endpoint.
package authctl

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"
)

const usage = `usage: authctl [-addr host:port] [-token jwt] <command> [args]

commands:
  create <email> [firstName [lastName]]   create an account (prompts for password)
  signin <login>                          sign in and print a token
  exists <email>                          report whether an account exists
  email <id>                              print the account e-mail
  delete <id>                             delete an account
  activate <id> | deactivate <id>         set the active flag
  send-code <email>                       send a verification code
  verify <email> [code]                   confirm an e-mail address
  validate <token>                        check a token`

// ErrUsage is returned for unknown commands and missing arguments.
var ErrUsage = errors.New("invalid usage")

type App struct {
	client   Caller
	in       *bufio.Reader
	out      io.Writer
	password func(prompt string) ([]byte, error)
}

func NewApp(client Caller, in io.Reader, out io.Writer) *App {
	a := &App{client: client, in: bufio.NewReader(in), out: out}
	a.password = func(prompt string) ([]byte, error) { return GetPassword(prompt, a.out) }
	return a
}

// Main parses global flags, connects and runs one command. It returns the
// process exit code.
func Main(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("authctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOr("AUTHCTL_ADDR", "localhost:50051"), "auth service gRPC address")
	token := fs.String("token", os.Getenv("AUTHCTL_TOKEN"), "bearer token for protected calls")
	timeout := fs.Duration("timeout", 10*time.Second, "per-command timeout")
	fs.Usage = func() { fmt.Fprintln(stderr, usage) }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	client, err := NewGRPCClient(*addr, *token)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := NewApp(client, stdin, stdout).Run(ctx, fs.Args()); err != nil {
		fmt.Fprintln(stderr, err)
		if errors.Is(err, ErrUsage) {
			fmt.Fprintln(stderr, usage)
			return 2
		}
		return 1
	}
	return 0
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Run executes one command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help":
		fmt.Fprintln(a.out, usage)
		return nil
	case "create":
		return a.create(ctx, rest)
	case "signin":
		return a.signIn(ctx, rest)
	case "exists":
		return a.exists(ctx, rest)
	case "email":
		return a.email(ctx, rest)
	case "delete":
		return a.simple(ctx, "DeleteUser", rest, func(v string) map[string]any { return map[string]any{"id": v} })
	case "activate", "deactivate":
		active := cmd == "activate"
		return a.simple(ctx, "ChangeActive", rest, func(v string) map[string]any {
			return map[string]any{"id": v, "active": active}
		})
	case "send-code":
		return a.simple(ctx, "SendVerificationCode", rest, func(v string) map[string]any { return map[string]any{"email": v} })
	case "verify":
		return a.verify(ctx, rest)
	case "validate":
		return a.validate(ctx, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func need(args []string, n int, what string) error {
	if len(args) < n {
		return fmt.Errorf("%w: missing %s", ErrUsage, what)
	}
	return nil
}

// call invokes method and turns a failed envelope into an error.
func (a *App) call(ctx context.Context, method string, req map[string]any) (*Reply, error) {
	r, err := a.client.Call(ctx, method, req)
	if err != nil {
		return nil, err
	}
	if !r.Success {
		return r, fmt.Errorf("%s (status %d)", r.Message, r.StatusCode)
	}
	return r, nil
}

func (a *App) simple(ctx context.Context, method string, args []string, req func(string) map[string]any) error {
	if err := need(args, 1, "argument"); err != nil {
		return err
	}
	r, err := a.call(ctx, method, req(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, r.Message)
	return nil
}

func (a *App) create(ctx context.Context, args []string) error {
	if err := need(args, 1, "email"); err != nil {
		return err
	}
	req := map[string]any{"email": args[0]}
	if len(args) > 1 {
		req["firstName"] = args[1]
	}
	if len(args) > 2 {
		req["lastName"] = args[2]
	}

	pw, err := a.password("Password")
	if err != nil {
		return err
	}
	defer wipe(pw)
	again, err := a.password("Repeat password")
	if err != nil {
		return err
	}
	defer wipe(again)
	if string(pw) != string(again) {
		return errors.New("passwords do not match")
	}
	req["password"] = string(pw)

	r, err := a.call(ctx, "CreateUser", req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\nid: %v\n", r.Message, r.Fields["id"])
	return nil
}

func (a *App) signIn(ctx context.Context, args []string) error {
	if err := need(args, 1, "login"); err != nil {
		return err
	}
	pw, err := a.password("Password")
	if err != nil {
		return err
	}
	defer wipe(pw)

	r, err := a.call(ctx, "SignIn", map[string]any{"userName": args[0], "password": string(pw)})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, r.Fields["token"])
	return nil
}

func (a *App) exists(ctx context.Context, args []string) error {
	if err := need(args, 1, "email"); err != nil {
		return err
	}
	r, err := a.call(ctx, "UserExists", map[string]any{"email": args[0]})
	if err != nil {
		return err
	}
	exists, _ := r.Fields["exists"].(bool)
	fmt.Fprintln(a.out, exists)
	return nil
}

func (a *App) email(ctx context.Context, args []string) error {
	if err := need(args, 1, "id"); err != nil {
		return err
	}
	r, err := a.call(ctx, "GetUserEmail", map[string]any{"id": args[0]})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, r.Fields["email"])
	return nil
}

func (a *App) verify(ctx context.Context, args []string) error {
	if err := need(args, 1, "email"); err != nil {
		return err
	}
	code := ""
	if len(args) > 1 {
		code = args[1]
	} else {
		var err error
		if code, err = GetSimpleText(a.in, "Verification code", a.out); err != nil {
			return err
		}
	}
	return a.simple(ctx, "VerifyEmail", args[:1], func(v string) map[string]any {
		return map[string]any{"email": v, "code": code}
	})
}

func (a *App) validate(ctx context.Context, args []string) error {
	if err := need(args, 1, "token"); err != nil {
		return err
	}
	r, err := a.call(ctx, "ValidateToken", map[string]any{"token": args[0]})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\nuser: %v\nemail: %v\n", r.Message, r.Fields["userId"], r.Fields["email"])
	return nil
}
