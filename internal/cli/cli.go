// Package cli wires configuration, the console and the browser backend into
// the speedcheck command.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/raysh454/speedcheck/internal/app"
	"github.com/raysh454/speedcheck/internal/logging"
	"github.com/raysh454/speedcheck/internal/webclient"
)

// Version is set at build time.
var Version = "dev"

// Options replaces the process environment of the command, for tests.
type Options struct {
	Stdout     io.Writer
	LookupEnv  func(string) (string, bool)
	Exit       func(int)
	NewBackend func(webclient.Config, logging.Logger) (webclient.Backend, error)

	// NoConfigFile skips the XDG config file lookup when --config is unset.
	NoConfigFile bool
}

func (o *Options) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.LookupEnv == nil {
		o.LookupEnv = os.LookupEnv
	}
	if o.Exit == nil {
		o.Exit = os.Exit
	}
	if o.NewBackend == nil {
		o.NewBackend = webclient.NewBackend
	}
}

// flags holds the raw flag values; only flags the user set override the
// file and environment.
type flags struct {
	configPath string
	headless   bool
	sleep      secondsFlag
	url        string
	verbose    int
	maxWait    secondsFlag
	backend    string
	chromePath string
	remoteURL  string
	textfile   string
	color      string
}

// secondsFlag takes the same values as SLEEP and MAX_WAIT: whole seconds or
// a duration such as 500ms.
type secondsFlag time.Duration

var _ pflag.Value = (*secondsFlag)(nil)

func (s *secondsFlag) String() string { return time.Duration(*s).String() }

func (s *secondsFlag) Set(v string) error {
	d, err := app.ParseSeconds(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*s = secondsFlag(d)
	return nil
}

func (s *secondsFlag) Type() string { return "seconds" }

func (f *flags) register(cmd *cobra.Command) {
	def := app.DefaultConfig()
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML config file (default $XDG_CONFIG_HOME/"+app.ConfigFileName+")")
	pf.BoolVar(&f.headless, "headless", def.Headless, "Run the browser without a window")
	f.sleep = secondsFlag(def.Interval)
	pf.Var(&f.sleep, "sleep", "Wait between readiness checks, in seconds or as a duration like 500ms")
	pf.StringVar(&f.url, "url", def.URL, "Speed test page")
	pf.CountVarP(&f.verbose, "verbose", "v", "Increase logging (-v info, -vv per check)")
	f.maxWait = secondsFlag(def.MaxWait)
	pf.Var(&f.maxWait, "max-wait", "Give up after this long, in seconds or as a duration (0 waits forever)")
	pf.StringVar(&f.backend, "backend", def.Backend, "Session backend: "+strings.Join(webclient.ListBackends(), ", "))
	pf.StringVar(&f.chromePath, "chrome-path", "", "Chrome executable (default: $"+webclient.ChromeEnv+" or auto-detect)")
	pf.StringVar(&f.remoteURL, "remote-url", "", "DevTools URL of a running browser, for --backend remote")
	pf.StringVar(&f.textfile, "textfile", "", "Write Prometheus gauges to this file after a measurement")
	pf.StringVar(&f.color, "color", def.Color, "Colorize output: auto, always or never")
}

// apply copies the flags the user set onto cfg.
func (f *flags) apply(cmd *cobra.Command, cfg *app.Config) {
	changed := cmd.Flags().Changed
	if changed("headless") {
		cfg.Headless = f.headless
	}
	if changed("sleep") {
		cfg.Interval = time.Duration(f.sleep)
	}
	if changed("url") {
		cfg.URL = f.url
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if changed("max-wait") {
		cfg.MaxWait = time.Duration(f.maxWait)
	}
	if changed("backend") {
		cfg.Backend = f.backend
	}
	if changed("chrome-path") {
		cfg.ChromePath = f.chromePath
	}
	if changed("remote-url") {
		cfg.RemoteURL = f.remoteURL
	}
	if changed("textfile") {
		cfg.Textfile = f.textfile
	}
	if changed("color") {
		cfg.Color = f.color
	}
}

// loadConfig resolves defaults < file < env < flags.
func (f *flags) loadConfig(cmd *cobra.Command, opts *Options) (*app.Config, error) {
	cfg := app.DefaultConfig()

	path := f.configPath
	if path == "" && !opts.NoConfigFile {
		path = app.DefaultConfigFile()
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadEnv(opts.LookupEnv); err != nil {
		return nil, err
	}
	f.apply(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newConsole(cfg *app.Config, opts *Options) *logging.Console {
	file, _ := opts.Stdout.(*os.File)
	colorOn, err := logging.ColorEnabled(cfg.Color, file)
	if err != nil {
		colorOn = false
	}
	return logging.NewConsole(cfg.Verbose,
		logging.WithOutput(opts.Stdout),
		logging.WithColor(colorOn),
		logging.WithExit(opts.Exit))
}

// fallbackConsole reports errors that happen before the configuration is
// known.
func fallbackConsole(opts *Options) *logging.Console {
	return newConsole(&app.Config{Color: logging.ColorAuto}, opts)
}

// NewRootCmd builds the speedcheck command tree.
func NewRootCmd(opts Options) *cobra.Command {
	opts.defaults()
	f := &flags{}

	// prepare loads the configuration and builds the application. It reports
	// failures itself and returns nil after calling Exit.
	prepare := func(cmd *cobra.Command) (*app.Application, *logging.Console) {
		cfg, err := f.loadConfig(cmd, &opts)
		if err != nil {
			fallbackConsole(&opts).Fatal(err.Error())
			return nil, nil
		}
		console := newConsole(cfg, &opts)
		backend, err := opts.NewBackend(cfg.WebClientConfig(), console)
		if err != nil {
			console.Fatal(err.Error())
			return nil, nil
		}
		return app.NewApplication(cfg, console, backend, app.WithOutput(opts.Stdout)), console
	}

	run := func(cmd *cobra.Command, fn func(*app.Application, context.Context) error) error {
		a, console := prepare(cmd)
		if a == nil {
			return nil
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := fn(a, ctx); err != nil {
			console.Fatal(err.Error())
		}
		return nil
	}

	root := &cobra.Command{
		Use:   "speedcheck",
		Short: "Measure internet download speed with a speed-test web page",
		Long: "speedcheck loads a speed-test page in a browser, waits for the test to finish\n" +
			"and prints one line: speed,<timestamp>,<value>,<unit>,<seconds waited>",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, (*app.Application).Run)
		},
	}
	f.register(root)
	root.SetOut(opts.Stdout)

	root.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Check that a browser can start and load the speed test page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, (*app.Application).Doctor)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "speedcheck version %s\n", Version)
		},
	})
	return root
}

// Execute runs the command against the process environment and returns the
// exit status.
func Execute() int {
	opts := Options{}
	opts.defaults()
	if err := NewRootCmd(opts).Execute(); err != nil {
		fallbackConsole(&opts).Error(err.Error())
		return 1
	}
	return 0
}
