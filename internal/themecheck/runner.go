// Package themecheck lints theme sources and reports offenses.
//
// Run walks a theme directory, feeds every .liquid and .json file through the
// enabled checks and returns the offenses they report. Files are checked
// concurrently; the result is independent of scheduling because offenses are
// collected per file in walk order.
package themecheck

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dkoosis/shopkit/pkg/offense"
)

// Result is the outcome of a check run.
type Result struct {
	Offenses       []offense.Offense
	FilesInspected int
}

// Options tunes a run.
type Options struct {
	Logger *zap.Logger
	// Jobs bounds concurrent file checks; <= 0 uses GOMAXPROCS.
	Jobs int
}

// Run checks every theme file under root.
func Run(ctx context.Context, root string, cfg *Config, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Result{}, fmt.Errorf("resolve theme root: %w", err)
	}
	if cfg.Root != "" && cfg.Root != "." {
		absRoot = filepath.Join(absRoot, cfg.Root)
	}

	files, err := collect(absRoot, cfg)
	if err != nil {
		return Result{}, err
	}

	var checks []Check
	severities := make(map[string]offense.Severity)
	for _, ch := range allChecks() {
		on, sev := cfg.enabled(ch)
		if !on {
			logger.Debug("check disabled", zap.String("check", ch.Name()))
			continue
		}
		checks = append(checks, ch)
		severities[ch.Name()] = sev
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	perFile := make([][]offense.Offense, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))

	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(f.AbsolutePath)
			if err != nil {
				return fmt.Errorf("read %s: %w", f.Key, err)
			}
			f.Source = string(data)
			perFile[i] = checkFile(&f, checks, severities)
			logger.Debug("checked file", zap.String("file", f.Key), zap.Int("offenses", len(perFile[i])))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{FilesInspected: len(files)}
	for _, offs := range perFile {
		res.Offenses = append(res.Offenses, offs...)
	}
	return res, nil
}

func checkFile(f *File, checks []Check, severities map[string]offense.Severity) []offense.Offense {
	var out []offense.Offense
	for _, ch := range checks {
		if !ch.Applies(f.Type) {
			continue
		}
		for _, finding := range ch.Run(f) {
			out = append(out, offense.Offense{
				Type:         f.Type,
				Check:        ch.Name(),
				Message:      finding.Message,
				AbsolutePath: f.AbsolutePath,
				Severity:     severities[ch.Name()],
				Start:        positionAt(f.Source, finding.Start),
				End:          positionAt(f.Source, finding.End),
			})
		}
	}
	return out
}

// collect lists the theme files under root in lexical order.
func collect(root string, cfg *Config) ([]File, error) {
	var files []File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		key := filepath.ToSlash(rel)

		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules" || cfg.ignored(key)) {
				return filepath.SkipDir
			}
			return nil
		}
		if cfg.ignored(key) {
			return nil
		}

		var typ offense.SourceType
		switch filepath.Ext(path) {
		case ".liquid":
			typ = offense.SourceLiquidHTML
		case ".json":
			typ = offense.SourceJSON
		default:
			return nil
		}
		files = append(files, File{AbsolutePath: path, Key: key, Type: typ})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk theme %s: %w", root, err)
	}
	return files, nil
}
