package engine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "stylusguard/internal/errors"
	"stylusguard/internal/model"
)

// AnalyzeProject walks dir for contract sources and analyzes them
// concurrently. Reports come back sorted by filename. A file that fails
// to build does not fail the run: it yields a report carrying only a
// parse diagnostic, so the surviving contracts still report in full.
func (e *Engine) AnalyzeProject(ctx context.Context, dir string) ([]*model.Report, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if entry.Name() == "target" || strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".rs") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	reports := make([]*model.Report, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			source, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rep, err := e.AnalyzeSource(gctx, path, source)
			if err != nil {
				var perr *apperrors.ParseError
				if !errors.As(err, &perr) {
					return err
				}
				e.log.Errorf("%s: %s", path, err.Error())
				reports[i] = unbuildableReport(path, perr)
				return nil
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// unbuildableReport stands in for a source file that yielded no
// analyzable structure. The parse failure travels as a diagnostic.
func unbuildableReport(path string, perr *apperrors.ParseError) *model.Report {
	name := strings.TrimSuffix(filepath.Base(path), ".rs")
	return &model.Report{
		Contract: name,
		Risk:     model.RiskMinimal,
		Diagnostics: []model.Diagnostic{{
			Kind:     "parse",
			Position: model.Position{File: perr.Pos.File, Line: perr.Pos.Line, Column: perr.Pos.Column},
			Message:  perr.Reason,
		}},
	}
}
