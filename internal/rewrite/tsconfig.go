package rewrite

import (
	"encoding/json"
	"fmt"

	"github.com/jakoblorz/express-ts-generator/internal/models"
)

// TypeConfigStep writes tsconfig.json next to the generated package.json,
// replacing any existing file.
type TypeConfigStep struct{}

func (TypeConfigStep) Name() string { return "tsconfig" }

func (TypeConfigStep) Apply(job *Job) error {
	cfg := models.NewTypeConfig(job.Request, job.Layout)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", models.TypeConfigFile, err)
	}

	return job.writeFile(models.TypeConfigFile, string(data)+"\n")
}
