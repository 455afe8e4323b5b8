package rewrite

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jakoblorz/express-ts-generator/internal/models"
)

// routePattern selects the route modules to convert, relative to routes/
const routePattern = "**/*" + models.SourceExt

// RenameStep moves the entry file and every route module from .js to .ts.
// The bootstrap file is extensionless and stays where it is.
type RenameStep struct{}

func (RenameStep) Name() string { return "rename" }

func (RenameStep) Apply(job *Job) error {
	sources, err := renameSources(job)
	if err != nil {
		return err
	}

	// every target is checked before the first move so a rerun fails untouched
	for _, src := range sources {
		dst := typedName(src)
		if job.FS.Exists(job.Path(dst)) {
			return fmt.Errorf("%w: %s", ErrTargetExists, dst)
		}
	}

	for _, f := range models.GeneratedFileSet {
		if !job.FS.Exists(job.Path(f.Path)) {
			return fmt.Errorf("%w: %s is missing", ErrShapeMismatch, f.Path)
		}
	}

	for _, src := range sources {
		dst := typedName(src)
		if err := job.FS.Rename(job.Path(src), job.Path(dst)); err != nil {
			return fmt.Errorf("failed to rename %s: %w", src, err)
		}
		job.Logger.Debug("renamed", "from", src, "to", dst)
		job.report.Renamed = append(job.report.Renamed, dst)
	}

	return nil
}

// renameSources lists the files to rename: the entry file plus every route
// module found under routes/, and the known route files even if they are
// already gone so the existence checks report them.
func renameSources(job *Job) ([]string, error) {
	seen := map[string]bool{}
	var sources []string
	add := func(rel string) {
		if !seen[rel] {
			seen[rel] = true
			sources = append(sources, rel)
		}
	}

	for _, f := range models.GeneratedFileSet {
		if f.Renamed() {
			add(f.Path)
		}
	}

	routesDir := job.Path(models.RoutesDir)
	if !job.FS.Exists(routesDir) {
		return sources, nil
	}

	var discovered []string
	err := job.FS.WalkDir(routesDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(routesDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if ok, _ := doublestar.Match(routePattern, rel); ok {
			discovered = append(discovered, path.Join(models.RoutesDir, rel))
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to scan %s: %w", models.RoutesDir, err)
	}

	sort.Strings(discovered)
	for _, rel := range discovered {
		add(rel)
	}

	return sources, nil
}

func typedName(rel string) string {
	return strings.TrimSuffix(rel, models.SourceExt) + models.TypedExt
}
