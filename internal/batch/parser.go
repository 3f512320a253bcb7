package batch

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

func ParseBatchYAML(r io.Reader) (*Batch, error) {
	yamlBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	jsonBytes, err := yaml.YAMLToJSON(yamlBytes)
	if err != nil {
		return nil, fmt.Errorf("yaml.YAMLToJSON: %w", err)
	}

	return ParseBatchJSON(bytes.NewReader(jsonBytes))
}

func ParseBatchJSON(r io.Reader) (*Batch, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var def batchDef
	if err := decoder.Decode(&def); err != nil {
		return nil, fmt.Errorf("json.Decode: %w", err)
	}

	return def.compile()
}
