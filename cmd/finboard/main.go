package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"finboard/internal/cli"
)

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"login":        {"sign in and store the session token", cmdLogin},
	"logout":       {"sign out and revoke the session", cmdLogout},
	"whoami":       {"show the signed-in user", cmdWhoami},
	"signup":       {"register a new company account", cmdSignup},
	"verify":       {"confirm an email verification token", cmdVerify},
	"forgot":       {"request a password reset email", cmdForgot},
	"guard":        {"check whether the current user may open a route", cmdGuard},
	"report":       {"print the financial summary and buckets", cmdReport},
	"export":       {"write the report to the configured export backend", cmdExport},
	"transactions": {"list, add or delete transactions", cmdTransactions},
	"departments":  {"show or replace the company departments", cmdDepartments},
	"notices":      {"list, post or delete notice board reports", cmdNotices},
	"members":      {"list, invite or remove company members", cmdMembers},
	"settings":     {"show or change appearance and notification settings", cmdSettings},
	"events":       {"print session events from the AMQP queue", cmdEvents},
}

var errUsage = errors.New("usage: finboard <command> [flags]")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every command receives.
type env struct {
	app    *cli.App
	stdin  io.Reader
	in     *bufio.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errUsage
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		usage(stdout)
		return nil
	}
	cmd, ok := commands[name]
	if !ok {
		usage(stderr)
		return fmt.Errorf("unknown command %q", name)
	}

	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel, stderr)

	ctx := context.Background()
	app, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	e := &env{
		app:    app,
		stdin:  stdin,
		in:     bufio.NewReader(stdin),
		stdout: stdout,
		stderr: stderr,
	}
	return cmd.run(ctx, e, args[1:])
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: finboard <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%s\n", name, commands[name].summary)
	}
	tw.Flush()
}

func newFlagSet(name string, e *env) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// prompt prints label and reads one line from stdin.
func (e *env) prompt(label string) (string, error) {
	fmt.Fprint(e.stdout, label)
	line, err := e.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword hides input on a terminal and falls back to a plain line read
// for pipes and tests.
func (e *env) readPassword(label string) (string, error) {
	if f, ok := e.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(e.stdout, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(e.stdout)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return e.prompt(label)
}

func (e *env) table() *tabwriter.Writer {
	return tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
