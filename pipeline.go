package scextract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodgit/scextract/manifest"
)

// ErrNoFiles is returned by Run when nothing could be extracted.
var ErrNoFiles = errors.New("no valid _tex.sc, .csv or extracted .sc files found")

// listFiles returns the regular files at path, which may be a single file
// or a directory. Directories are not descended into.
func listFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}

	return files, nil
}

func (e *Extractor) findFiles(ctx context.Context, files []string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, file := range files {
			select {
			case out <- file:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return out, errc, nil
}

func (e *Extractor) fileWorker(ctx context.Context, in <-chan string, report *Report) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			res, err := e.processFile(ctx, file)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					errc <- ctxErr
					return
				}
				e.logger.WithField("file", file).Error(err)
				res = &Result{Path: file}
				res.fail(ScopeFile, "", err)
			}
			if res != nil {
				report.add(res)
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// processFile reads, classifies and extracts a single file. A nil result
// means the file is not an asset.
func (e *Extractor) processFile(ctx context.Context, file string) (*Result, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	kind, ok := Classify(file, data, !e.opts.DisableFilter)
	if !ok {
		e.logger.WithField("file", file).Debug("not an asset")
		return nil, nil
	}
	if e.opts.Kind != Any && kind != e.opts.Kind {
		return &Result{Path: file, Kind: kind, Skipped: true}, nil
	}

	sha := manifest.Hash(data)
	if e.db != nil && e.opts.SkipUnchanged {
		seen, err := e.db.Seen(sha)
		if err != nil {
			return nil, err
		}
		if seen {
			e.logger.WithField("file", file).Info("unchanged, skipping")
			return &Result{Path: file, Kind: kind, Skipped: true}, nil
		}
	}

	var res *Result
	switch kind {
	case Tex:
		res, err = e.ProcessTex(ctx, file, data)
	case Sc:
		res, err = e.ProcessSc(ctx, file, data)
	case Csv:
		res, err = e.ProcessCsv(ctx, file, data)
	default:
		return nil, fmt.Errorf("unhandled file type %v", kind)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.logger.WithField("file", file).Error(err)
		res = &Result{Path: file, Kind: kind}
		res.fail(ScopeFile, "", err)
	}

	e.record(res, sha)

	if e.opts.Delete && res.Clean() {
		if err := os.Remove(file); err != nil {
			e.logger.WithField("file", file).Warnf("unable to delete: %v", err)
		} else {
			res.Deleted = true
		}
	}

	return res, nil
}

// record adds res to the manifest, if there is one.
func (e *Extractor) record(res *Result, sha string) {
	if e.run == nil {
		return
	}

	logger := e.logger.WithField("file", res.Path)

	if err := func() error {
		source, err := e.run.AddSource(res.Path, res.Kind.String(), sha)
		if err != nil {
			return err
		}
		for _, o := range res.Outputs {
			if err := e.run.AddOutput(source, o); err != nil {
				return err
			}
		}
		for _, f := range res.Failures {
			if err := e.run.AddFailure(source, string(f.Scope), f.Item, f.Err.Error()); err != nil {
				return err
			}
		}
		return e.run.Finish(source, res.Clean())
	}(); err != nil {
		logger.Errorf("unable to update manifest: %v", err)
	}
}

// Run extracts the file at path, or every file directly within path if it
// is a directory. Texture containers and tables are extracted before shape
// files so that sprites can be cut from atlases written by the same run.
//
// A file that fails to extract does not stop the others; the returned
// Report lists every failure. An error is only returned if path cannot be
// read, ctx is cancelled or no files were extracted.
func (e *Extractor) Run(ctx context.Context, path string) (*Report, error) {
	files, err := listFiles(path)
	if err != nil {
		return nil, err
	}

	if e.db != nil {
		if e.run, err = e.db.Begin(); err != nil {
			return nil, err
		}
		e.logger.WithField("run", e.run.UUID).Info("started run")
	}

	// Anything without an extension is a shape file
	var first, second []string
	for _, file := range files {
		if filepath.Ext(file) == "" {
			second = append(second, file)
		} else {
			first = append(first, file)
		}
	}

	report := new(Report)

	for _, stage := range [][]string{first, second} {
		if err := e.runStage(ctx, stage, report); err != nil {
			return nil, err
		}
	}

	report.sort()

	if len(report.Results) == 0 {
		return report, ErrNoFiles
	}

	return report, nil
}

func (e *Extractor) runStage(ctx context.Context, files []string, report *Report) error {
	if len(files) == 0 {
		return nil
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	in, errc, err := e.findFiles(ctx, files)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < e.opts.workers(); i++ {
		errc, err := e.fileWorker(ctx, in, report)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
