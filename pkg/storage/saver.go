package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	errs "weibodl/pkg/errors"
	"weibodl/pkg/logger"
)

// DefaultTimeout bounds a single save attempt
const DefaultTimeout = 5 * time.Minute

// Options configures a Saver
type Options struct {
	OutputDir  string
	Timeout    time.Duration
	Overwrite  bool
	HTTPClient *http.Client
}

// Saver fetches remote files and persists them under the output directory
type Saver struct {
	outputDir  string
	httpClient *http.Client
	timeout    time.Duration
	overwrite  bool
	logger     logger.Logger
}

// NewSaver creates a new saver, creating the output directory if needed
func NewSaver(opts Options, log logger.Logger) (*Saver, error) {
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if log == nil {
		log = logger.GetLogger()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Saver{
		outputDir:  opts.OutputDir,
		httpClient: client,
		timeout:    timeout,
		overwrite:  opts.Overwrite,
		logger:     log.WithField("component", "storage"),
	}, nil
}

// OutputDir returns the output directory path
func (s *Saver) OutputDir() string {
	return s.outputDir
}

// Path returns the destination path of filename
func (s *Saver) Path(filename string) string {
	return filepath.Join(s.outputDir, filename)
}

// Exists reports whether filename is already present in the output directory
func (s *Saver) Exists(filename string) bool {
	_, err := os.Stat(s.Path(filename))
	return err == nil
}

// Save performs one attempt at fetching url with headers and storing the
// body as filename. Timeouts are reported as timeout errors; every other
// failure is classified as network, status or storage.
func (s *Saver) Save(ctx context.Context, url, filename string, headers map[string]string) (int64, error) {
	if err := validateFilename(filename); err != nil {
		return 0, err
	}
	if !s.overwrite {
		if info, err := os.Stat(s.Path(filename)); err == nil {
			s.logger.DebugWithFields("file exists, skipping", map[string]interface{}{
				"filename": filename,
			})
			return info.Size(), nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errs.New(errs.ErrorTypeParse, fmt.Sprintf("invalid url %q: %v", url, err), err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, errs.ClassifyTransport("save request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &errs.Error{
			Type:    errs.ErrorTypeStatus,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}

	return s.WriteFile(filename, resp.Body)
}

// WriteFile stores the contents of r as filename. Data is written to a
// temporary .part file and renamed into place once complete.
func (s *Saver) WriteFile(filename string, r io.Reader) (int64, error) {
	if err := validateFilename(filename); err != nil {
		return 0, err
	}
	final := s.Path(filename)

	out, err := os.CreateTemp(s.outputDir, filename+".*.part")
	if err != nil {
		return 0, errs.New(errs.ErrorTypeStorage, fmt.Sprintf("failed to create temporary file: %v", err), err)
	}
	tempFile := out.Name()

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		if errs.IsTimeout(err) {
			return 0, errs.ClassifyTransport("body read timed out", err)
		}
		return 0, errs.New(errs.ErrorTypeNetwork, fmt.Sprintf("failed to copy data: %v", err), err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return 0, errs.New(errs.ErrorTypeStorage, fmt.Sprintf("failed to close file: %v", closeErr), closeErr)
	}

	if err := os.Rename(tempFile, final); err != nil {
		os.Remove(tempFile)
		return 0, errs.New(errs.ErrorTypeStorage, fmt.Sprintf("failed to rename temporary file: %v", err), err)
	}

	return n, nil
}

func validateFilename(filename string) error {
	if filename == "" || filename == "." || filename == ".." ||
		strings.ContainsAny(filename, `/\`) {
		return errs.New(errs.ErrorTypeStorage, fmt.Sprintf("invalid filename %q", filename), nil)
	}
	return nil
}
