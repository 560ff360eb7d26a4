package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/siteup/internal/config"
	"github.com/bamsammich/siteup/internal/engine"
	"github.com/bamsammich/siteup/internal/filter"
	"github.com/bamsammich/siteup/internal/transport"
)

var version = "dev"

// passwordEnv is the fallback credential source for non-interactive
// deploys (CI pipelines).
const passwordEnv = "SITEUP_PASSWORD"

func main() {
	os.Exit(run())
}

// excludeFlag is a custom pflag.Value: each --exclude occurrence
// appends its comma-separated rules to a shared list.
type excludeFlag struct {
	rules *[]string
}

var _ pflag.Value = (*excludeFlag)(nil)

func (*excludeFlag) String() string { return "" }
func (*excludeFlag) Type() string   { return "string" }

func (f *excludeFlag) Set(val string) error {
	*f.rules = append(*f.rules, filter.Parse(val).Rules()...)
	return nil
}

//nolint:gocyclo // main CLI entry point orchestrates all flag parsing
func run() int {
	var (
		host         string
		port         int
		user         string
		password     string
		remoteDir    string
		excludeRules []string
		useTLS       bool
		entry        string
		verbose      bool
		quiet        bool
		dryRun       bool
		showVersion  bool
	)

	rootCmd := &cobra.Command{
		Use:   "siteup [flags] <local-dir> [ftp://user@host:port/path]",
		Short: "Deploy a built static site over FTP, publishing the entry document last",
		Long: `siteup mirrors a local directory of built static-site artifacts to a
remote directory over FTP or FTPS. The remote directory is reconciled
first (pre-existing entries are deleted unless excluded), every asset is
uploaded, and the entry document (index.html by default) is written only
after everything else has landed, so concurrent readers never observe a
half-deployed site.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			return cobra.RangeArgs(1, 2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println("siteup", version)
				return nil
			}

			// Configure logging.
			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			} else if quiet {
				logLevel = slog.LevelWarn
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			}))
			slog.SetDefault(logger)

			// Optional config file supplies defaults for unset flags.
			fileCfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config file", "error", err)
			}
			defaults := fileCfg.Defaults
			if !cmd.Flags().Changed("host") && defaults.Host != nil {
				host = *defaults.Host
			}
			if !cmd.Flags().Changed("port") && defaults.Port != nil {
				port = *defaults.Port
			}
			if !cmd.Flags().Changed("user") && defaults.User != nil {
				user = *defaults.User
			}
			if !cmd.Flags().Changed("remote-dir") && defaults.RemoteDir != nil {
				remoteDir = *defaults.RemoteDir
			}
			if !cmd.Flags().Changed("exclude") && defaults.Exclude != nil {
				excludeRules = filter.Parse(*defaults.Exclude).Rules()
			}
			if !cmd.Flags().Changed("tls") && defaults.TLS != nil {
				useTLS = *defaults.TLS
			}
			if !cmd.Flags().Changed("entry") && defaults.Entry != nil {
				entry = *defaults.Entry
			}

			// Second positional arg is a target URL overriding the
			// connection flags.
			if len(args) == 2 {
				tgt, ok := transport.ParseTarget(args[1])
				if !ok {
					return fmt.Errorf("invalid target %q (want ftp:// or ftps:// URL)", args[1])
				}
				host = tgt.Host
				remoteDir = tgt.Path
				if tgt.Port != 0 {
					port = tgt.Port
				}
				if tgt.User != "" {
					user = tgt.User
				}
				if tgt.TLS {
					useTLS = true
				}
			}

			if host == "" {
				return fmt.Errorf("no server host (use --host or a target URL)")
			}

			// Password: flag, then environment, then config file.
			if password == "" {
				password = os.Getenv(passwordEnv)
			}
			if password == "" && defaults.Password != nil {
				password = *defaults.Password
			}

			tcfg := transport.Config{
				Host:     host,
				Port:     port,
				User:     user,
				Password: password,
				Root:     remoteDir,
				TLS:      useTLS,
			}
			if verbose {
				tcfg.Debug = os.Stderr
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result := engine.Run(ctx, engine.Config{
				Transport:  tcfg,
				LocalRoot:  args[0],
				Exclusions: filter.New(excludeRules...),
				Entry:      entry,
				DryRun:     dryRun,
			})

			for _, item := range result.CleanupFailures {
				slog.Warn("remote entry survived cleanup", "path", item.Path, "error", item.Err)
			}
			for _, item := range result.UploadFailures {
				slog.Warn("file not deployed", "path", item.Path, "error", item.Err)
			}
			slog.Info("deployment finished", "summary", result.Stats.Summary())

			if result.Err != nil {
				return result.Err
			}
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&host, "host", "H", "", "FTP server host")
	flags.IntVarP(&port, "port", "P", transport.DefaultPort, "FTP server port")
	flags.StringVarP(&user, "user", "u", "", "FTP username")
	flags.StringVar(&password, "password", "", "FTP password (or "+passwordEnv+" env)")
	flags.StringVarP(&remoteDir, "remote-dir", "r", "/", "remote root directory")
	flags.VarP(&excludeFlag{rules: &excludeRules}, "exclude", "x", "comma-separated paths protected from deletion and upload (repeatable)")
	flags.BoolVar(&useTLS, "tls", false, "use explicit FTPS on the control connection")
	flags.StringVar(&entry, "entry", engine.DefaultEntry, "entry document published last")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging and protocol trace")
	flags.BoolVarP(&quiet, "quiet", "q", false, "warnings and errors only")
	flags.BoolVarP(&dryRun, "dry-run", "n", false, "scan and report without touching the remote server")
	flags.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("deployment failed", "error", err)
		return 1
	}
	return 0
}
