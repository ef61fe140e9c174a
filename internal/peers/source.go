// Package peers reads peer link records from the file the peer data-exchange
// tooling maintains on the host. The wire protocol that produces the file is
// out of scope; this package only materializes its current output.
package peers

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"tunneld/pkg/types"
)

// FileSource lists peer records from a single YAML file.
type FileSource struct {
	path string
}

// NewFileSource constructs a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type linksFile struct {
	Links []types.PeerRecord `yaml:"links"`
}

// List returns the current peer records sorted ascending by link id. A
// missing file means no links exist yet and is not an error.
func (s *FileSource) List() ([]types.PeerRecord, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading peer links file: %w", err)
	}
	var doc linksFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing peer links file %s: %w", s.path, err)
	}
	records := doc.Links
	sort.Slice(records, func(i, j int) bool { return records[i].LinkID < records[j].LinkID })
	return records, nil
}
