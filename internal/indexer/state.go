package indexer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const stateFile = "state.json"

// IndexState tracks the PDF each subject index was built from.
type IndexState struct {
	SourceHashes map[string]string `json:"source_hashes"`
	LastUpdated  time.Time         `json:"last_updated"`
}

// LoadState reads index state from state.json inside the index directory.
func LoadState(dir string) (*IndexState, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &IndexState{
				SourceHashes: make(map[string]string),
			}, nil
		}
		return nil, err
	}

	var state IndexState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.SourceHashes == nil {
		state.SourceHashes = make(map[string]string)
	}
	return &state, nil
}

// SaveState writes the index state to state.json inside the index directory.
func (s *IndexState) SaveState(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	s.LastUpdated = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, stateFile), data, 0o644)
}

// IsChanged returns true if the subject's PDF hash differs from the hash
// its index was built from.
func (s *IndexState) IsChanged(subject, contentHash string) bool {
	stored, ok := s.SourceHashes[subject]
	if !ok {
		return true
	}
	return stored != contentHash
}
