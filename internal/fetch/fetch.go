// Package fetch downloads cricsheet match files.
package fetch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultURL is the cricsheet archive of every IPL match.
const DefaultURL = "https://cricsheet.org/downloads/ipl_json.zip"

// Client downloads archives and single match files over HTTP.
type Client struct {
	http *http.Client
	log  *zap.Logger
}

// NewClient returns a Client with a generous timeout; the full IPL archive is
// several megabytes.
func NewClient(log *zap.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: 5 * time.Minute},
		log:  log,
	}
}

// Result lists the files a download produced.
type Result struct {
	Written []string
	Skipped []string // already present in the target directory
}

// Download fetches rawURL into dir. A .zip archive is unpacked and only its
// .json members are kept; anything else is saved under its own name. Files
// already in dir are never overwritten.
func (c *Client) Download(ctx context.Context, rawURL, dir string) (Result, error) {
	var res Result
	u, err := url.Parse(rawURL)
	if err != nil {
		return res, fmt.Errorf("parse url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return res, fmt.Errorf("url %q has no file name", rawURL)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("create dir: %w", err)
	}

	body, err := c.get(ctx, rawURL)
	if err != nil {
		return res, err
	}
	defer body.Close()

	if !strings.HasSuffix(name, ".zip") {
		target := filepath.Join(dir, name)
		written, err := writeNew(target, body)
		if err != nil {
			return res, err
		}
		if written {
			res.Written = append(res.Written, target)
		} else {
			res.Skipped = append(res.Skipped, target)
		}
		return res, nil
	}

	// zip needs random access, so stage the archive on disk first.
	tmp, err := os.CreateTemp(dir, ".download-*.zip")
	if err != nil {
		return res, fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, body)
	if err != nil {
		return res, fmt.Errorf("download: %w", err)
	}
	c.log.Debug("Downloaded archive", zap.String("url", rawURL), zap.Int64("bytes", size))

	zr, err := zip.NewReader(tmp, size)
	if err != nil {
		return res, fmt.Errorf("open archive: %w", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".json") {
			continue
		}
		// Flatten member paths so nothing escapes dir.
		target := filepath.Join(dir, filepath.Base(f.Name))
		written, err := extract(f, target)
		if err != nil {
			return res, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		if written {
			res.Written = append(res.Written, target)
		} else {
			res.Skipped = append(res.Skipped, target)
		}
	}
	c.log.Info("Unpacked archive",
		zap.String("dir", dir),
		zap.Int("written", len(res.Written)),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: HTTP %d", rawURL, resp.StatusCode)
	}
	return resp.Body, nil
}

func extract(f *zip.File, target string) (bool, error) {
	rc, err := f.Open()
	if err != nil {
		return false, err
	}
	defer rc.Close()
	return writeNew(target, rc)
}

// writeNew copies src to target unless target exists. It reports whether the
// file was written.
func writeNew(target string, src io.Reader) (bool, error) {
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(target)
		return false, fmt.Errorf("write %s: %w", target, err)
	}
	return true, out.Close()
}
