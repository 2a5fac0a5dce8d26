package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFixtureSets loads every fixture set document from a file path or an
// http(s) URL. A source may hold several documents separated by "---".
func LoadFixtureSets(source string) ([]*FixtureSet, error) {
	var documents [][]byte
	if isURL(source) {
		docs, err := FetchYAMLDocuments(source)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch fixture file: %w", err)
		}
		documents = docs
	} else {
		data, err := os.ReadFile(source) //nolint:gosec // source is user-provided CLI input, not untrusted
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture file: %w", err)
		}
		documents, err = SplitYAMLDocuments(data)
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture file: %w", err)
		}
	}

	if len(documents) == 0 {
		return nil, fmt.Errorf("no fixture documents found in %s", source)
	}

	sets := make([]*FixtureSet, 0, len(documents))
	for i, doc := range documents {
		set, err := ParseFixtureSet(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// ParseFixtureSet parses a single fixture set document
func ParseFixtureSet(data []byte) (*FixtureSet, error) {
	var set FixtureSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to parse fixture YAML: %w", err)
	}
	return &set, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
