package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"gopkg.in/yaml.v3"
)

const fetchTimeout = 30 * time.Second

// FetchYAMLDocuments fetches YAML content from a URL and splits it into separate documents
func FetchYAMLDocuments(url string) ([][]byte, error) {
	client := &http.Client{Timeout: fetchTimeout}
	resp, err := client.Get(url) //nolint:gosec // URL is user-provided CLI input
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return SplitYAMLDocuments(data)
}

// SplitYAMLDocuments splits a multi-document YAML stream into one encoded
// document each, dropping empty documents
func SplitYAMLDocuments(data []byte) ([][]byte, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var result [][]byte

	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return result, nil
			}
			return nil, fmt.Errorf("failed to split YAML documents: %w", err)
		}
		if isEmptyDocument(&doc) {
			continue
		}

		out, err := yaml.Marshal(&doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode YAML document %d: %w", len(result), err)
		}
		result = append(result, out)
	}
}

func isEmptyDocument(doc *yaml.Node) bool {
	if len(doc.Content) == 0 {
		return true
	}
	root := doc.Content[0]
	return root.Kind == yaml.ScalarNode && root.Tag == "!!null"
}
