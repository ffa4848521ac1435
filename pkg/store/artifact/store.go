package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/de-tools/vm-cost-atlas/pkg/models/api"
)

// Store reads a generated report artifact from disk. The file is re-read on
// each request so a regenerated report is picked up without a restart.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Artifact(_ context.Context) (api.Artifact, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", s.path, err)
	}

	var artifact api.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", s.path, err)
	}
	return artifact, nil
}
