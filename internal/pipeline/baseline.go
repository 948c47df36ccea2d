// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/ahzs645/saturationsearch/pkg/types"
)

// LoadBaseline reads the baseline corpus from a YAML file: a list of
// records in the standard record shape. The baseline drives both
// previously-known annotation and recall validation.
func LoadBaseline(path string) ([]types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading baseline %s: %w", path, err)
	}

	var records []types.Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing baseline %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("baseline %s contains no records", path)
	}
	return records, nil
}
