// Package walker finds the source files of a project and runs the highlight
// pipeline over them in parallel.
package walker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"liblinker/internal/resolver"
	"liblinker/internal/scan"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

var log = commonlog.GetLogger("liblinker.walker")

// Collect returns the files named by paths. Directories are walked; any
// entry whose name begins with "." is skipped entirely, as are directories
// the resolver prunes. Walked files must match the resolver; files named
// explicitly are always kept. The result is sorted and free of duplicates.
func Collect(r *resolver.Resolver, paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{r.Root()}
	}

	seen := make(map[string]struct{})
	add := func(path string) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		seen[path] = struct{}{}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		log.Debugf("walking %q", root)
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Warningf("walk error: %s", err.Error())
				return nil
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if r.SkipDir(path) {
					return fs.SkipDir
				}
				return nil
			}
			if r.Matches(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	files := make([]string, 0, len(seen))
	for path := range seen {
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// Report is the pipeline result for one file. Err is set when the file
// could not be read.
type Report struct {
	Path   string
	Result scan.Result
	Err    error
}

// Check reads and scans every file with at most jobs files in flight.
// Reports keep the order of files. Unreadable files are reported, not
// fatal; only cancellation of ctx aborts the run.
func Check(ctx context.Context, files []string, jobs int, deps scan.Dependencies) ([]Report, error) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	reports := make([]Report, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i].Path = path
			data, err := os.ReadFile(path)
			if err != nil {
				log.Warningf("read %s: %s", path, err.Error())
				reports[i].Err = err
				return nil
			}
			reports[i].Result = scan.Highlight(string(data), deps)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
