// Package output writes and reads the tier tree and the article-to-circle
// map as JSON files.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"keyword_tiers/rating"
)

// Encode marshals v without HTML escaping so labels survive verbatim.
func Encode(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes v into path, creating parent directories as needed.
func WriteJSON(path string, v any, indent bool) error {
	data, err := Encode(v, indent)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteResult saves the tier tree to treePath and the cluster map to
// clustersPath.
func WriteResult(res *rating.Result, treePath, clustersPath string, indent bool) error {
	if err := WriteJSON(treePath, res.Tree, indent); err != nil {
		return err
	}
	return WriteJSON(clustersPath, res.Clusters, indent)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// ReadTree loads a tier tree written by WriteResult.
func ReadTree(path string) (*rating.TierTree, error) {
	var tree rating.TierTree
	if err := readJSON(path, &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// ReadClusters loads a cluster map written by WriteResult.
func ReadClusters(path string) (rating.ClusterMap, error) {
	var clusters rating.ClusterMap
	if err := readJSON(path, &clusters); err != nil {
		return nil, err
	}
	return clusters, nil
}
