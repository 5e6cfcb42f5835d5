// Command dockeeper is a terminal client for the document keeper API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"dockeeper/internal/model"
	"dockeeper/internal/router"
	"dockeeper/internal/service"
)

const (
	Version = "0.1.0"
	appName = "dockeeper"
)

func main() {
	if err := rootCmd(defaultEnv()).ExecuteContext(context.Background()); err != nil {
		// Service errors were already shown as a toast.
		if !service.IsQuiet(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func rootCmd(e *env) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Keep bills, certificates and other documents in one place",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetIn(e.in)
	cmd.SetOut(e.out)
	cmd.SetErr(e.errOut)

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.apiURL, "api-url", "", "API base URL (overrides DOCKEEPER_API_URL)")
	pf.StringVar(&opts.sessionFile, "session-file", "", "Session file path (overrides DOCKEEPER_SESSION_FILE)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.token, "token", "", "Use this token for one invocation without persisting it")

	cmd.AddCommand(
		registerCmd(e, opts),
		loginCmd(e, opts),
		logoutCmd(e, opts),
		listCmd(e, opts),
		uploadCmd(e, opts),
		deleteCmd(e, opts),
		openCmd(e, opts),
		showCmd(e, opts),
		shellCmd(e, opts),
		&cobra.Command{
			Use:   "categories",
			Short: "List document categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return printCategories(e.out)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(e.out, "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// run wires an App, starts the router from the stored session and calls fn.
func run(cmd *cobra.Command, e *env, opts *options, fn func(context.Context, *App) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, e, opts)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		a.Close(closeCtx)
	}()

	a.router.Start(ctx, a.store)
	return fn(ctx, a)
}

func registerCmd(e *env, opts *options) *cobra.Command {
	var in service.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, e, opts, func(ctx context.Context, a *App) error {
				return a.register(ctx, in)
			})
		},
	}
	cmd.Flags().StringVar(&in.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password")
	cmd.Flags().StringVar(&in.ConfirmPassword, "confirm-password", "", "Password again")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("confirm-password")
	return cmd
}

func loginCmd(e *env, opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, e, opts, func(ctx context.Context, a *App) error {
				return a.login(ctx, email, password)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd(e *env, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, e, opts, func(ctx context.Context, a *App) error {
				return a.auth.Logout(ctx)
			})
		},
	}
}

func listCmd(e *env, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "list <category>",
		Short:     "Show the documents of one category",
		Args:      cobra.ExactArgs(1),
		ValidArgs: categoryArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, e, opts, func(ctx context.Context, a *App) error {
				return a.list(ctx, args[0])
			})
		},
	}
}

func uploadCmd(e *env, opts *options) *cobra.Command {
	var (
		title  string
		fields map[string]string
	)
	cmd := &cobra.Command{
		Use:   "upload <category> <file>",
		Short: "Upload a file into a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, e, opts, func(ctx context.Context, a *App) error {
				return a.upload(ctx, args[0], args[1], title, fields)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Document title")
	cmd.Flags().StringToStringVar(&fields, "field", nil, "Extra form field as key=value (repeatable)")
	return cmd
}

func deleteCmd(e *env, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <category> <id>",
		Short: "Delete a document after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, e, opts, func(ctx context.Context, a *App) error {
				return a.remove(ctx, args[0], args[1])
			})
		},
	}
	cmd.Flags().BoolVarP(&opts.assumeYes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func openCmd(e *env, opts *options) *cobra.Command {
	var browser bool
	cmd := &cobra.Command{
		Use:   "open <category> <id>",
		Short: "Print the view URL of a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, e, opts, func(ctx context.Context, a *App) error {
				return a.open(ctx, args[0], args[1], browser)
			})
		},
	}
	cmd.Flags().BoolVar(&browser, "browser", false, "Also open the URL in the system browser")
	return cmd
}

func showCmd(e *env, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <section>",
		Short:     "Activate a section: login, signup, dashboard or a category",
		Args:      cobra.ExactArgs(1),
		ValidArgs: sectionArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, e, opts, func(ctx context.Context, a *App) error {
				return a.show(ctx, args[0])
			})
		},
	}
}

func categoryArgs() []string {
	var out []string
	for _, c := range model.Categories() {
		out = append(out, string(c))
	}
	return out
}

func sectionArgs() []string {
	var out []string
	for _, s := range router.Sections() {
		out = append(out, string(s))
	}
	return out
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
