package projection

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/landscape/pkg/errors"
)

// Read decodes a snapshot from r and validates it.
//
// Read returns an INVALID_SNAPSHOT error when the JSON is malformed, when two
// points share an id, or when a coordinate is not finite. Points that
// reference an unknown group are accepted. Read does not close r.
func Read(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "decode snapshot")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Import reads and validates the snapshot stored at path.
func Import(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Write encodes s as indented JSON.
func Write(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Export writes s to path.
func Export(s *Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(s, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Validate checks the structural invariants of a snapshot.
func (s *Snapshot) Validate() error {
	seen := make(map[int]struct{}, len(s.Points))
	for _, p := range s.Points {
		if _, dup := seen[p.ID]; dup {
			return errors.New(errors.ErrCodeInvalidSnapshot, "duplicate point id %d", p.ID)
		}
		seen[p.ID] = struct{}{}
		if !p.Finite() {
			return errors.New(errors.ErrCodeInvalidSnapshot, "point %d has non-finite coordinates", p.ID)
		}
	}
	for _, v := range s.ExplainedVariance {
		if v < 0 || v > 1 {
			return errors.New(errors.ErrCodeInvalidSnapshot, "explained variance %g outside [0, 1]", v)
		}
	}
	return nil
}
