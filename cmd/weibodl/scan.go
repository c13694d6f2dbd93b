package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"weibodl/pkg/feed"
	"weibodl/pkg/trigger"
	"weibodl/pkg/ui"
)

var (
	scanOut      string
	scanActivate bool
	attachPolicy string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <file|url>",
	Short: "Attach download controls to the posts of a feed page",
	Long: `Make one pass over a feed page and attach a download control next to the
timestamp link of every qualifying post.

The page may be a saved HTML file or a weibo.com URL. With --out the
annotated page is written back out; with --activate every control is
activated immediately and the command waits for the downloads.`,
	Example: `  # Show which posts would get a control
  weibodl scan feed.html

  # Write the annotated page
  weibodl scan feed.html --out feed.annotated.html

  # Download everything on a live feed page
  weibodl scan https://weibo.com/u/1234567890 --activate`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	addDownloadFlags(scanCmd)
	scanCmd.Flags().StringVar(&scanOut, "out", "", "write the annotated page to this file")
	scanCmd.Flags().BoolVar(&scanActivate, "activate", false, "activate every attached control")
	scanCmd.Flags().StringVar(&attachPolicy, "attach-policy", "", "which posts get a control (strict, always)")
}

// sourceFor picks a page source for a file path or an http(s) URL
func sourceFor(arg string, fetcher feed.PageFetcher) feed.Source {
	lower := strings.ToLower(arg)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return feed.URLSource{URL: arg, Fetcher: fetcher}
	}
	return feed.FileSource{Path: arg}
}

func scanFlags(cmd *cobra.Command) map[string]interface{} {
	flags := downloadFlags(cmd)
	if attachPolicy != "" {
		flags["attach-policy"] = attachPolicy
	}
	return flags
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := newApp(scanFlags(cmd), false)
	if err != nil {
		ui.PrintError("Failed to initialize", err.Error())
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	source := sourceFor(args[0], a.client)
	page, err := source.Load(ctx)
	if err != nil {
		ui.PrintError("Failed to load page", err.Error())
		return err
	}

	scanner := feed.NewScanner(feed.OptionsFromConfig(a.cfg.Feed), a.handler, a.metrics, a.log)

	var controls []*feed.Control
	scanner.OnControl(func(c *feed.Control) {
		controls = append(controls, c)
	})
	marked := scanner.Scan(page)

	ui.PrintInfo("Posts found", fmt.Sprintf("%d", marked))
	ui.PrintInfo("Controls attached", fmt.Sprintf("%d", len(controls)))
	if !scanActivate {
		for _, c := range controls {
			fmt.Fprintf(ui.Output, "  %s\n", c.Permalink)
		}
	}

	if scanOut != "" {
		if err := writePage(page, scanOut); err != nil {
			ui.PrintError("Failed to write page", err.Error())
			return err
		}
		ui.PrintSuccess("Annotated page written: " + scanOut)
	}

	if !scanActivate || len(controls) == 0 {
		return nil
	}

	dash := ui.NewConsoleDashboard(ui.Output)
	a.handler.OnOutcome(func(c *feed.Control, outcome *trigger.Outcome, err error) {
		dash.ActivationFinished(c.Permalink, outcome, err)
	})
	for _, c := range controls {
		dash.ControlAttached(c.Permalink)
		dash.ActivationStarted(c.Permalink)
		c.Activate(ctx)
	}
	a.handler.Wait()
	dash.Complete()
	return nil
}

func writePage(page feed.Page, path string) error {
	doc, ok := page.(*feed.Document)
	if !ok {
		return fmt.Errorf("page from %T cannot be serialized", page)
	}
	html, err := doc.HTML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(html), 0644)
}
