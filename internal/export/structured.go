// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// JSONExporter exports the complete transcript structure as JSON.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter { return &JSONExporter{} }

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (e *JSONExporter) FileExtension() string { return ".json" }
func (e *JSONExporter) MimeType() string      { return "application/json" }

// YAMLExporter exports the complete transcript structure as YAML.
type YAMLExporter struct{}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter() *YAMLExporter { return &YAMLExporter{} }

// Export converts a transcript to YAML.
func (e *YAMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *YAMLExporter) FileExtension() string { return ".yaml" }
func (e *YAMLExporter) MimeType() string      { return "application/yaml" }
