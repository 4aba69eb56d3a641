package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/xcroster/internal/app"
	"github.com/okian/xcroster/internal/config"
	"github.com/okian/xcroster/internal/domain/validate"
	"github.com/okian/xcroster/pkg/logger"
)

// ErrNotSignedIn is returned by admin commands without a live session.
var ErrNotSignedIn = errors.New("not signed in; run `xcctl login` first")

// AppFactory builds a client for one command run.
type AppFactory func(ctx context.Context, cfg *config.Config, opts ...app.Option) (*app.App, error)

// Options configures the root command.
type Options struct {
	// LoadConfig defaults to config.Load.
	LoadConfig func(ctx context.Context) (*config.Config, error)
	// NewApp defaults to app.NewFromConfig.
	NewApp AppFactory
	// Styles defaults to DefaultStyles.
	Styles *Styles
}

type runner struct {
	opts Options
	st   Styles

	server    string
	tokenFile string
	verbose   bool
	search    string
	password  string
}

// NewRootCommand assembles the xcctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}
	if opts.NewApp == nil {
		opts.NewApp = func(_ context.Context, cfg *config.Config, o ...app.Option) (*app.App, error) {
			return app.NewFromConfig(cfg, o...)
		}
	}
	r := &runner{opts: opts, st: DefaultStyles()}
	if opts.Styles != nil {
		r.st = *opts.Styles
	}

	root := &cobra.Command{
		Use:           "xcctl",
		Short:         "Jones County XC roster client",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `xcctl browses the team roster, schedule and results, and lets the
administrator manage athletes, meets and results.

Pages are addressed by fragment, e.g. #home, #athletes, #schedule,
#results?meet=3, #admin and #admin-athletes.`,
	}
	root.PersistentFlags().StringVar(&r.server, "server", "", "API base URL (default from config)")
	root.PersistentFlags().StringVar(&r.tokenFile, "token-file", "", "session token file (default in the user config dir)")
	root.PersistentFlags().BoolVarP(&r.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(r.loginCmd(), r.logoutCmd(), r.statusCmd(), r.openCmd(), r.browseCmd())
	root.AddCommand(r.athletesCmd(), r.meetsCmd(), r.resultsCmd())
	return root
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand(Options{}).ExecuteContext(ctx)
}

// withApp starts a client at fragment, runs fn and closes the client.
func (r *runner) withApp(cmd *cobra.Command, fragment string, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := r.opts.LoadConfig(ctx)
	if err != nil {
		return err
	}
	if r.server != "" {
		cfg.BaseURL = r.server
	}
	if r.tokenFile != "" {
		cfg.TokenFile = r.tokenFile
	}
	log := logger.Nop()
	if r.verbose {
		if err := logger.InitWithWriter(cmd.ErrOrStderr()); err == nil {
			_ = logger.SetLevelString("debug")
			log = logger.Get().Named("xcctl")
		}
	}

	a, err := r.opts.NewApp(ctx, cfg, app.WithFragment(fragment), app.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	if err := a.Start(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

// requireSession fails when the stored session did not verify.
func requireSession(a *app.App) error {
	if !a.Session().Authenticated() {
		return ErrNotSignedIn
	}
	return nil
}

func (r *runner) render(ctx context.Context, cmd *cobra.Command, a *app.App) error {
	v, err := a.Render(ctx)
	if err != nil {
		return err
	}
	return NewRenderer(r.st).Render(cmd.OutOrStdout(), v)
}

// notify prints the notices raised by a mutation.
func (r *runner) notify(cmd *cobra.Command, a *app.App) {
	for _, n := range a.Notices().Active() {
		style := r.st.Success
		if n.Level == app.LevelError {
			style = r.st.Error
		}
		fmt.Fprintln(cmd.OutOrStdout(), style.Render(n.Message))
	}
}

// formError prints field errors one per line and returns a summary.
func (r *runner) formError(cmd *cobra.Command, err error) error {
	var fe validate.FieldErrors
	if !errors.As(err, &fe) {
		return err
	}
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintln(cmd.ErrOrStderr(), r.st.Error.Render(field+": "+fe[field]))
	}
	return validate.ErrInvalid
}

func (r *runner) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as the team administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := r.password
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}
			return r.withApp(cmd, "#login", func(ctx context.Context, a *app.App) error {
				if a.Session().Authenticated() {
					fmt.Fprintln(cmd.OutOrStdout(), r.st.Muted.Render("Already signed in."))
					return nil
				}
				if err := a.Login(ctx, password); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), r.st.Success.Render("Signed in."))
				return r.render(ctx, cmd, a)
			})
		},
	}
	cmd.Flags().StringVarP(&r.password, "password", "p", "", "admin password (read from stdin when omitted)")
	return cmd
}

func (r *runner) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the administrator session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, "#home", func(ctx context.Context, a *app.App) error {
				if err := a.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), r.st.Success.Render("Signed out."))
				return nil
			})
		},
	}
}

func (r *runner) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, "#home", func(_ context.Context, a *app.App) error {
				s := a.Session()
				state := r.st.Muted.Render(s.State.String())
				if s.Authenticated() {
					state = r.st.Success.Render(s.State.String())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "session: %s\n", state)
				return nil
			})
		},
	}
}

func (r *runner) openCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open [fragment]",
		Short: "Render a page, e.g. #results?meet=3",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fragment := "#home"
			if len(args) == 1 {
				fragment = fragmentArg(args[0])
			}
			return r.withApp(cmd, fragment, func(ctx context.Context, a *app.App) error {
				a.Search(r.search)
				return r.render(ctx, cmd, a)
			})
		},
	}
	cmd.Flags().StringVarP(&r.search, "search", "s", "", "filter athletes by name")
	return cmd
}

func (r *runner) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [fragment]",
		Short: "Browse pages interactively; type help for commands",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fragment := "#home"
			if len(args) == 1 {
				fragment = fragmentArg(args[0])
			}
			return r.withApp(cmd, fragment, func(ctx context.Context, a *app.App) error {
				return newBrowser(a, cmd.OutOrStdout(), r.st).run(ctx, cmd.InOrStdin())
			})
		},
	}
}

func fragmentArg(s string) string {
	if !strings.HasPrefix(s, "#") {
		return "#" + s
	}
	return s
}

// mutation runs fn with a signed-in client and prints its notices.
func (r *runner) mutation(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	return r.withApp(cmd, "#admin", func(ctx context.Context, a *app.App) error {
		if err := requireSession(a); err != nil {
			return err
		}
		err := fn(ctx, a)
		r.notify(cmd, a)
		if errors.Is(err, validate.ErrInvalid) {
			return r.formError(cmd, err)
		}
		return err
	})
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (r *runner) athletesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "athletes", Short: "Manage athletes"}

	var form validate.AthleteForm
	bind := func(c *cobra.Command) {
		c.Flags().StringVar(&form.Name, "name", "", "athlete name")
		c.Flags().StringVar(&form.Grade, "grade", "", "grade, 9 to 12")
		c.Flags().StringVar(&form.PersonalRecord, "pr", "", "personal record as MM:SS")
		c.Flags().StringVar(&form.Events, "events", "", "comma-separated events")
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Add an athlete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.mutation(cmd, func(ctx context.Context, a *app.App) error {
				_, err := a.CreateAthlete(ctx, form)
				return err
			})
		},
	}
	bind(add)

	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace an athlete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return r.mutation(cmd, func(ctx context.Context, a *app.App) error {
				return a.UpdateAthlete(ctx, id, form)
			})
		},
	}
	bind(edit)

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove an athlete and their results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return r.mutation(cmd, func(ctx context.Context, a *app.App) error {
				return a.DeleteAthlete(ctx, id)
			})
		},
	}

	cmd.AddCommand(add, edit, rm)
	return cmd
}

func (r *runner) meetsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "meets", Short: "Manage meets"}

	var form validate.MeetForm
	bind := func(c *cobra.Command) {
		c.Flags().StringVar(&form.Name, "name", "", "meet name")
		c.Flags().StringVar(&form.Date, "date", "", "date as YYYY-MM-DD")
		c.Flags().StringVar(&form.Location, "location", "", "course location")
		c.Flags().StringVar(&form.Description, "description", "", "optional description")
		c.Flags().StringVar(&form.Category, "category", "", "varsity-boys, varsity-girls, jv-boys or jv-girls")
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Schedule a meet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.mutation(cmd, func(ctx context.Context, a *app.App) error {
				_, err := a.CreateMeet(ctx, form)
				return err
			})
		},
	}
	bind(add)

	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace a meet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return r.mutation(cmd, func(ctx context.Context, a *app.App) error {
				return a.UpdateMeet(ctx, id, form)
			})
		},
	}
	bind(edit)

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a meet and its results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return r.mutation(cmd, func(ctx context.Context, a *app.App) error {
				return a.DeleteMeet(ctx, id)
			})
		},
	}

	cmd.AddCommand(add, edit, rm)
	return cmd
}

func (r *runner) resultsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "results", Short: "Manage results"}

	var form validate.ResultForm
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.mutation(cmd, func(ctx context.Context, a *app.App) error {
				_, err := a.CreateResult(ctx, form)
				return err
			})
		},
	}
	add.Flags().StringVar(&form.MeetID, "meet", "", "meet id")
	add.Flags().StringVar(&form.AthleteID, "athlete", "", "athlete id")
	add.Flags().StringVar(&form.Time, "time", "", "finish time as MM:SS")
	add.Flags().StringVar(&form.Place, "place", "", "finishing place, blank if unplaced")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return r.mutation(cmd, func(ctx context.Context, a *app.App) error {
				return a.DeleteResult(ctx, id)
			})
		},
	}

	cmd.AddCommand(add, rm)
	return cmd
}

// exitCode maps an error to a process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotSignedIn), errors.Is(err, validate.ErrInvalid):
		return 2
	default:
		return 1
	}
}

// Main runs xcctl and exits.
func Main(ctx context.Context) {
	err := Execute(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, DefaultStyles().Error.Render("error: "+err.Error()))
	}
	os.Exit(exitCode(err))
}
