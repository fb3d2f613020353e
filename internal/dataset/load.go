package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadFile reads an override dataset. Sections absent from the file keep the
// built-in tables.
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes an override dataset from TOML text
func Parse(data []byte) (*Dataset, error) {
	var override Dataset
	if _, err := toml.Decode(string(data), &override); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}

	d := Default()
	if len(override.Candidates) > 0 {
		d.Candidates = override.Candidates
	}
	// Persons and links only make sense together.
	if len(override.Persons) > 0 {
		d.Persons = override.Persons
		d.Links = override.Links
	}
	if len(override.Sources) > 0 {
		d.Sources = override.Sources
	}
	if len(override.Records) > 0 {
		d.Records = override.Records
	}
	if len(override.Tree) > 0 {
		d.Tree = override.Tree
	}

	if _, err := d.Graph().Validate(); err != nil {
		return nil, fmt.Errorf("invalid family graph: %w", err)
	}
	return d, nil
}

// Write encodes the dataset as TOML
func Write(w io.Writer, d *Dataset) error {
	return toml.NewEncoder(w).Encode(d)
}
