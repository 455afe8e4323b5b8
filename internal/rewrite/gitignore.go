package rewrite

import (
	"bytes"
	"strings"

	"github.com/denormal/go-gitignore"
	"github.com/jakoblorz/express-ts-generator/internal/models"
)

// ignoredDirs must be excluded from version control in a TypeScript project
var ignoredDirs = []string{"node_modules", "dist"}

// GitIgnoreStep appends node_modules/ and dist/ to an existing .gitignore
// when its patterns do not already cover them.
type GitIgnoreStep struct{}

func (GitIgnoreStep) Name() string { return "gitignore" }

func (GitIgnoreStep) Apply(job *Job) error {
	if !job.FS.Exists(job.Path(models.GitIgnoreFile)) {
		job.report.Skipped = append(job.report.Skipped, "gitignore")
		return nil
	}

	src, err := job.readFile(models.GitIgnoreFile)
	if err != nil {
		return err
	}

	ignore := gitignore.New(bytes.NewBufferString(src), job.Layout.SourceDir(), nil)

	var missing []string
	for _, dir := range ignoredDirs {
		if match := ignore.Relative(dir, true); match == nil || !match.Ignore() {
			missing = append(missing, dir+"/")
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(src)
	if src != "" && !strings.HasSuffix(src, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n# TypeScript\n")
	for _, line := range missing {
		b.WriteString(line + "\n")
	}

	return job.writeFile(models.GitIgnoreFile, b.String())
}
