package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"weibodl/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	outputDir  string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "weibodl",
	Short: "Download the images and videos of Weibo feed posts",
	Long: `weibodl saves the media attached to Weibo posts under names derived from
the post's creation time.

It can:
  - Download a single post by id or permalink
  - Scan a saved or live feed page and attach a download control to every post
  - Watch a feed page and activate new controls as posts appear
  - Write a JSON metadata sidecar next to each post's files

For help with a command, run 'weibodl <command> --help'.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.Output = io.Discard
		}

		if showLogo(cmd) {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.weibodl.yaml or ~/.config/weibodl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`weibodl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// showLogo is false for quiet runs, help and machine readable output
func showLogo(cmd *cobra.Command) bool {
	if quiet || cmd.Name() == "version" || cmd.Name() == "help" {
		return false
	}
	if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
		return false
	}
	return true
}

// globalFlags collects the persistent flags in the shape config.Load expects
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}
