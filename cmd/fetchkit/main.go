package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/brizzai/fetchkit/internal/config"
	"github.com/brizzai/fetchkit/internal/logger"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(Execute(os.Args[1:]))
}

// exitError carries a process exit code out of a command without printing
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// app holds the state shared by every subcommand
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "fetchkit",
		Short: "Send HTTP requests with a hard deadline",
		Long: `fetchkit sends single HTTP requests that are raced against a deadline.
Every call ends in exactly one outcome: success, http_error, transport_error
or cancelled. The same request layer can be served as an MCP tool.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag, _ := cmd.Flags().GetBool("version"); versionFlag {
				pterm.Info.Println(config.GetVersionInfo())
				return &exitError{code: 0}
			}
			if cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := logger.InitLogger(&cfg.Logging); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")

	for _, method := range []string{"GET", "HEAD", "DELETE", "POST", "PUT", "PATCH"} {
		rootCmd.AddCommand(newRequestCmd(a, method))
	}
	rootCmd.AddCommand(newServeCmd(a), newVersionCmd())

	return rootCmd
}

// Execute runs the CLI and returns the process exit code
func Execute(args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			pterm.Error.Printf("\nCaught panic: %v\n", r)
			pterm.Error.Printf("%s\n", debug.Stack())
			code = 4
		}
	}()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		pterm.Error.Println(err)
		return 1
	}
	return 0
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			pterm.Info.Println(config.GetVersionInfo())
		},
	}
}
