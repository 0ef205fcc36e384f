package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"lostfound/app/config"
	"lostfound/app/models"
	"lostfound/service"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

const programName = "lostfound"

// CliVersion is overridden at build time with -ldflags "-X main.CliVersion=...".
var CliVersion = "dev"

type cli struct {
	configFile string
	debug      bool

	in     io.Reader
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := run(context.Background(), os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}

func newRootCommand(in io.Reader) *cobra.Command {
	c := &cli{in: in}
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Lost & Found claim verification service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.configFile, "config", "", "path to config file (default "+config.DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&c.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(
		c.serveCommand(),
		c.initCommand(),
		c.cleanCommand(),
		c.backupCommand(),
		c.restoreCommand(),
		c.tokenCommand(),
		versionCommand(),
	)
	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.debug {
		cfg.Debug = true
	}
	logger, err := service.NewLogger(cfg.Debug)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger.With(zap.String("component", programName))
	return nil
}

func (c *cli) commands(cmd *cobra.Command) *service.Commands {
	return service.NewCommands(c.cfg, c.in, cmd.OutOrStdout(), c.logger)
}

func (c *cli) serveCommand() *cobra.Command {
	var bindAddr string
	var port uint
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("bind") {
				c.cfg.BindAddr = bindAddr
			}
			if cmd.Flags().Changed("port") {
				c.cfg.Port = port
			}
			if _, err := maxprocs.Set(maxprocs.Logger(c.logger.Sugar().Infof)); err != nil {
				c.logger.Warn("failed to set GOMAXPROCS", zap.Error(err))
			}
			c.logger.Info("starting", zap.String("version", CliVersion), zap.String("addr", c.cfg.Addr()))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return service.RunAppServer(ctx, c.cfg, c.logger)
		},
	}
	cmd.Flags().StringVar(&bindAddr, "bind", "", "override the listen address")
	cmd.Flags().UintVarP(&port, "port", "p", 0, "override the listen port")
	return cmd
}

func (c *cli) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.commands(cmd).Init()
		},
	}
}

func (c *cli) cleanCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the database and search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cancelled(cmd, c.commands(cmd).Clean(force))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")
	return cmd
}

func (c *cli) backupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write a full backup of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.commands(cmd).Backup()
			return err
		},
	}
}

func (c *cli) restoreCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Replace the database with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cancelled(cmd, c.commands(cmd).Restore(args[0], force))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")
	return cmd
}

func (c *cli) tokenCommand() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := c.commands(cmd).Token(args[0], models.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(models.RoleGeneral), "General or Officer")
	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// version needs neither config nor logger
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", programName, CliVersion)
		},
	}
}

// cancelled reports a declined prompt without failing the process.
func cancelled(cmd *cobra.Command, err error) error {
	if errors.Is(err, service.ErrCancelled) {
		fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
		return nil
	}
	return err
}

func run(ctx context.Context, in io.Reader, out, errOut io.Writer, args []string) error {
	cmd := newRootCommand(in)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd.ExecuteContext(ctx)
}
