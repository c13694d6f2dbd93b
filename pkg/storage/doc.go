// Package storage persists downloaded media to the output directory.
//
// Saver.Save performs one GET with the caller's headers and writes the body
// atomically: data goes to a temporary .part file in the same directory which
// is renamed to the final name only after the copy succeeds, so a failed or
// timed out attempt never leaves a truncated file under the final name.
//
// Usage:
//
//	saver, err := storage.NewSaver(storage.Options{
//	    OutputDir: "downloads",
//	    Timeout:   5 * time.Minute,
//	    Overwrite: true,
//	}, logger.GetLogger())
//
//	size, err := saver.Save(ctx, url, "210101000000.jpg", map[string]string{
//	    "Referer": "https://weibo.com/",
//	})
package storage
