package rewrite

import (
	"fmt"
	"path/filepath"

	"github.com/jakoblorz/express-ts-generator/internal/models"
)

// projectFiles belong to the project root rather than the source folder
var projectFiles = []string{models.ManifestFile, models.TypeConfigFile, models.GitIgnoreFile}

// RelocateStep moves the project-level files out of src/ when sources are
// nested. The manifest is required; the other files move when present.
type RelocateStep struct{}

func (RelocateStep) Name() string { return "relocate" }

func (RelocateStep) Apply(job *Job) error {
	if !job.Layout.HasNestedSourceFolder {
		return nil
	}

	for _, name := range projectFiles {
		src := job.Path(name)
		if !job.FS.Exists(src) {
			if name == models.ManifestFile {
				return fmt.Errorf("%w: %s is missing", ErrShapeMismatch, name)
			}
			continue
		}

		dst := filepath.Join(job.Layout.Root, name)
		if err := job.FS.Rename(src, dst); err != nil {
			return fmt.Errorf("failed to move %s to project root: %w", name, err)
		}
		job.Logger.Debug("relocated", "file", name, "to", dst)
	}

	return nil
}
