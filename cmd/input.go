package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pable/cricket-graph/internal/model"
	"github.com/pable/cricket-graph/internal/parser"
)

// Input file flags shared by ingest and parse.
var (
	matchesPath    string
	deliveriesPath string
	cricsheetPaths []string
)

// inputs is everything read from the input files.
type inputs struct {
	matches    []model.Match
	deliveries []model.Delivery
	rejected   int
}

func readInputs(ctx context.Context) (inputs, error) {
	var in inputs
	if matchesPath == "" && deliveriesPath == "" && len(cricsheetPaths) == 0 {
		return in, fmt.Errorf("nothing to read: pass --matches, --deliveries or --cricsheet")
	}

	if matchesPath != "" {
		matches, n, err := readCSVFile(matchesPath, parser.ReadMatchesCSV)
		if err != nil {
			return in, err
		}
		in.matches = append(in.matches, matches...)
		in.rejected += n
	}
	if deliveriesPath != "" {
		deliveries, n, err := readCSVFile(deliveriesPath, parser.ReadDeliveriesCSV)
		if err != nil {
			return in, err
		}
		in.deliveries = append(in.deliveries, deliveries...)
		in.rejected += n
	}
	if len(cricsheetPaths) > 0 {
		files, err := expandCricsheet(cricsheetPaths)
		if err != nil {
			return in, err
		}
		matches, deliveries, n, err := readCricsheetFiles(ctx, files)
		if err != nil {
			return in, err
		}
		in.matches = append(in.matches, matches...)
		in.deliveries = append(in.deliveries, deliveries...)
		in.rejected += n
	}
	return in, nil
}

// readCSVFile opens path and runs read over it, logging every rejected row.
func readCSVFile[T any](path string, read func(r io.Reader) ([]T, []error, error)) ([]T, int, error) {
	rc, err := parser.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer rc.Close()

	records, rowErrs, err := read(rc)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}
	for _, e := range rowErrs {
		log.Warn("Skipping row", zap.String("file", path), zap.Error(e))
	}
	log.Info("Read file",
		zap.String("file", path),
		zap.Int("records", len(records)),
		zap.Int("rejected", len(rowErrs)))
	return records, len(rowErrs), nil
}

var cricsheetExts = []string{".json", ".json.gz", ".json.zst", ".json.bz2"}

// expandCricsheet replaces every directory in paths with the cricsheet files
// directly inside it, sorted by name.
func expandCricsheet(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && isCricsheetFile(e.Name()) {
				out = append(out, filepath.Join(p, e.Name()))
			}
		}
	}
	return out, nil
}

func isCricsheetFile(name string) bool {
	for _, ext := range cricsheetExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// readCricsheetFiles decodes files in parallel. A file that fails to decode
// is logged and counted as rejected; results keep the order of files.
func readCricsheetFiles(ctx context.Context, files []string) ([]model.Match, []model.Delivery, int, error) {
	type result struct {
		match      model.Match
		deliveries []model.Delivery
		err        error
	}
	results := make([]result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, d, err := readCricsheetFile(path)
			results[i] = result{match: m, deliveries: d, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, 0, err
	}

	var (
		matches    []model.Match
		deliveries []model.Delivery
		rejected   int
	)
	for i, r := range results {
		if r.err != nil {
			log.Warn("Skipping cricsheet file", zap.String("file", files[i]), zap.Error(r.err))
			rejected++
			continue
		}
		matches = append(matches, r.match)
		deliveries = append(deliveries, r.deliveries...)
	}
	log.Info("Read cricsheet files",
		zap.Int("files", len(files)),
		zap.Int("matches", len(matches)),
		zap.Int("deliveries", len(deliveries)),
		zap.Int("rejected", rejected))
	return matches, deliveries, rejected, nil
}

func readCricsheetFile(path string) (model.Match, []model.Delivery, error) {
	id, err := parser.MatchIDFromPath(path)
	if err != nil {
		return model.Match{}, nil, err
	}
	rc, err := parser.Open(path)
	if err != nil {
		return model.Match{}, nil, err
	}
	defer rc.Close()
	return parser.ReadCricsheet(rc, id)
}
