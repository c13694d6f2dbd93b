// Package feed scans Weibo feed pages for posts and attaches download
// controls to them.
//
// A Scanner enumerates permalink anchors in a Page, marks each one so that it
// is examined only once per session, and for anchors passing the attach
// policy inserts a Control bound to an Activator. Run repeats the scan at a
// fixed interval against a FileSource or URLSource.
//
//	scanner := feed.NewScanner(feed.OptionsFromConfig(cfg.Feed), handler, collector, log)
//	scanner.OnControl(func(c *feed.Control) { c.Activate(ctx) })
//	err := scanner.Run(ctx, feed.FileSource{Path: "home.html"})
package feed
