package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"weibodl/pkg/ui"
	"weibodl/pkg/weibo"
)

var resolveJSON bool

// resolvedAsset is one line of resolve output
type resolvedAsset struct {
	Index    int    `json:"index"`
	Kind     string `json:"kind"`
	Branch   string `json:"branch"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <id|permalink>",
	Short: "List the media of a post without downloading it",
	Long: `Fetch a post's metadata and print every media URL with the filename it
would be saved under. Nothing is written to disk.`,
	Example: `  # Human readable listing
  weibodl resolve Kx3AbCdEf

  # Machine readable listing
  weibodl resolve https://weibo.com/1234567890/Kx3AbCdEf --json -q`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print the asset list as JSON")
	resolveCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
}

func runResolve(cmd *cobra.Command, args []string) error {
	postID, err := weibo.ParsePostID(args[0])
	if err != nil {
		ui.PrintError("Invalid post", err.Error())
		return err
	}

	flags := globalFlags()
	if accountName != "" {
		flags["account"] = accountName
	}
	a, err := newApp(flags, false)
	if err != nil {
		ui.PrintError("Failed to initialize", err.Error())
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	plan, err := a.handler.Plan(ctx, postID)
	if err != nil {
		ui.PrintError("Failed to resolve post", err.Error())
		return err
	}

	assets := make([]resolvedAsset, len(plan.Tasks))
	for i, t := range plan.Tasks {
		assets[i] = resolvedAsset{
			Index:    t.Index,
			Kind:     string(t.Kind),
			Branch:   plan.Assets[i].Branch,
			URL:      t.URL,
			Filename: t.Filename,
		}
	}

	if resolveJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(assets)
	}

	if len(assets) == 0 {
		ui.PrintWarning("No media in post", postID)
		return nil
	}
	ui.PrintHighlight(fmt.Sprintf("%d assets in post %s", len(assets), postID))
	for _, asset := range assets {
		fmt.Fprintf(ui.Output, "  %-22s %-6s %s\n", asset.Filename, asset.Kind, ui.Dim(asset.URL))
	}
	return nil
}
