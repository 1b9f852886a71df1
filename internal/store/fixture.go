package store

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FolderFile is the YAML folder fixture format:
//
//	folders:
//	  - id: 1
//	    path: /
//	  - id: 300
//	    path: /sites
type FolderFile struct {
	Folders []Folder `yaml:"folders"`
}

// ParseFolders decodes a YAML folder fixture. Unknown fields are errors.
func ParseFolders(data []byte) ([]Folder, error) {
	var file FolderFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse folders: %w", err)
	}

	seen := make(map[int64]string, len(file.Folders))
	for _, f := range file.Folders {
		if f.ID <= 0 {
			return nil, fmt.Errorf("folder %q: id must be positive", f.Path)
		}
		if other, ok := seen[f.ID]; ok {
			return nil, fmt.Errorf("folder id %d used by %q and %q", f.ID, other, f.Path)
		}
		seen[f.ID] = f.Path
	}
	return file.Folders, nil
}

// LoadFolderFile reads and decodes a YAML folder fixture.
func LoadFolderFile(path string) ([]Folder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read folders: %w", err)
	}
	return ParseFolders(data)
}
