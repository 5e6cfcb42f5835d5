package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"dockeeper/internal/model"
	"dockeeper/internal/service"
)

const shellHelp = `Commands:
  register <email> <password> <confirm> [full name]
  login <email> <password>
  logout
  show <section>
  list [category]
  upload <category> <file> [title]
  delete <category> <id>
  open <category> <id>
  categories
  help
  exit`

func shellCmd(e *env, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session that follows logins made elsewhere",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, e, opts, func(ctx context.Context, a *App) error {
				return a.shell(ctx)
			})
		},
	}
}

func (a *App) shell(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		err := a.watchSession(ctx, func(loggedIn bool) {
			if loggedIn {
				fmt.Fprintln(a.env.out, "\nSession started elsewhere.")
				return
			}
			fmt.Fprintln(a.env.out, "\nSession ended elsewhere.")
		})
		if err != nil {
			a.logger.Warn("session_watch_failed", "error", err.Error())
		}
	}()

	fmt.Fprintln(a.env.out, `Type "help" for commands.`)
	for {
		fmt.Fprintf(a.env.out, "%s> ", a.router.Active())
		line, err := a.env.in.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if a.exec(ctx, line) {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.env.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// exec runs one shell line and reports whether the shell should exit.
func (a *App) exec(ctx context.Context, line string) bool {
	f := strings.Fields(line)
	verb, args := f[0], f[1:]

	var err error
	switch verb {
	case "exit", "quit":
		return true
	case "help":
		fmt.Fprintln(a.env.out, shellHelp)
	case "categories":
		err = printCategories(a.env.out)
	case "logout":
		err = a.auth.Logout(ctx)
	case "login":
		if err = want(args, 2, "login <email> <password>"); err == nil {
			err = a.login(ctx, args[0], args[1])
		}
	case "register":
		if err = want(args, 3, "register <email> <password> <confirm> [full name]"); err == nil {
			err = a.register(ctx, service.RegisterInput{
				Email:           args[0],
				Password:        args[1],
				ConfirmPassword: args[2],
				FullName:        strings.Join(args[3:], " "),
			})
		}
	case "show":
		if err = want(args, 1, "show <section>"); err == nil {
			err = a.show(ctx, args[0])
		}
	case "list":
		category := string(a.router.Active())
		if len(args) > 0 {
			category = args[0]
		}
		if !model.Category(category).Valid() {
			err = fmt.Errorf("usage: list <category>")
			break
		}
		err = a.list(ctx, category)
	case "upload":
		if err = want(args, 2, "upload <category> <file> [title]"); err == nil {
			err = a.upload(ctx, args[0], args[1], strings.Join(args[2:], " "), nil)
		}
	case "delete":
		if err = want(args, 2, "delete <category> <id>"); err == nil {
			err = a.remove(ctx, args[0], args[1])
		}
	case "open":
		if err = want(args, 2, "open <category> <id>"); err == nil {
			err = a.open(ctx, args[0], args[1], false)
		}
	default:
		err = fmt.Errorf("unknown command %q, try help", verb)
	}

	if err != nil && !service.IsQuiet(err) {
		fmt.Fprintf(a.env.errOut, "Error: %v\n", err)
	}
	return false
}

func want(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}
