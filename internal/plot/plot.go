// Package plot persists chart configs so the frontend can fetch them
// again after the conversational turn that produced them.
package plot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"datachat_llm/pkg"
)

// Saver writes chart configs into a directory served as /plots/.
type Saver struct {
	dir string
}

func NewSaver(dir string) (*Saver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plots dir: %w", err)
	}
	return &Saver{dir: dir}, nil
}

// Save writes the chart as JSON and returns its public URL path.
func (s *Saver) Save(config *pkg.ChartConfig) (string, error) {
	name := uuid.NewString() + ".json"

	data, err := sonic.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to encode chart: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}
	return "/plots/" + name, nil
}

// Dir returns the directory charts are written to.
func (s *Saver) Dir() string {
	return s.dir
}
