package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"weibodl/pkg/ui"
	"weibodl/pkg/weibo"
)

var (
	// Download flags shared by post, scan and watch
	accountName  string
	concurrent   int
	maxAttempts  int
	saveMetadata bool
)

// postCmd represents the post command
var postCmd = &cobra.Command{
	Use:   "post <id|permalink>",
	Short: "Download every image and video of a single post",
	Long: `Download the media of one Weibo post.

The post may be given as its bare id or as a permalink such as
https://weibo.com/1234567890/Kx3AbCdEf. Files are named after the post's
creation time, one second apart, so they sort in the order they appear
in the post.`,
	Example: `  # Download by permalink
  weibodl post https://weibo.com/1234567890/Kx3AbCdEf

  # Download by id into a specific directory with a metadata sidecar
  weibodl post Kx3AbCdEf --output ./weibo --save-metadata`,
	Args: cobra.ExactArgs(1),
	RunE: runPost,
}

func init() {
	rootCmd.AddCommand(postCmd)
	addDownloadFlags(postCmd)
}

// addDownloadFlags registers the flags that tune a download run
func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	cmd.Flags().IntVar(&concurrent, "concurrent", 0, "maximum parallel downloads per post (0 means unbounded)")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "maximum attempts per timed out file (0 means unlimited)")
	cmd.Flags().BoolVar(&saveMetadata, "save-metadata", false, "write a JSON metadata file next to the media")
}

// downloadFlags merges the download flags the user actually set
func downloadFlags(cmd *cobra.Command) map[string]interface{} {
	flags := globalFlags()
	if accountName != "" {
		flags["account"] = accountName
	}
	if cmd.Flags().Changed("concurrent") {
		flags["concurrent"] = concurrent
	}
	if cmd.Flags().Changed("max-attempts") {
		flags["max-attempts"] = maxAttempts
	}
	if cmd.Flags().Changed("save-metadata") {
		flags["save-metadata"] = saveMetadata
	}
	return flags
}

// signalContext is cancelled on interrupt or termination
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runPost(cmd *cobra.Command, args []string) error {
	postID, err := weibo.ParsePostID(args[0])
	if err != nil {
		ui.PrintError("Invalid post", err.Error())
		return err
	}

	a, err := newApp(downloadFlags(cmd), false)
	if err != nil {
		ui.PrintError("Failed to initialize", err.Error())
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	ui.PrintInfo("Post", postID)
	ui.PrintInfo("Output", a.saver.OutputDir())

	outcome, err := a.handler.HandlePost(ctx, postID)
	if err != nil {
		ui.PrintError("Download failed", err.Error())
		return err
	}

	ui.PrintOutcome(ui.Output, outcome)
	if failed := outcome.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(outcome.Results))
	}
	return nil
}
