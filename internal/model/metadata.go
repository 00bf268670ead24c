package model

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const metadataSchema = `{
  "type": "object",
  "required": ["version", "input_name", "output_name", "input_shape", "output_shape"],
  "properties": {
    "version":      {"type": "string", "minLength": 1},
    "input_name":   {"type": "string", "minLength": 1},
    "output_name":  {"type": "string", "minLength": 1},
    "input_shape":  {"type": "array", "minItems": 1, "items": {"type": "integer", "minimum": 1}},
    "output_shape": {"type": "array", "minItems": 1, "items": {"type": "integer", "minimum": 1}},
    "classes":      {"type": "array", "items": {"type": "string"}},
    "image_size":   {"type": "integer", "minimum": 1}
  }
}`

// LoadMetadata reads and validates the model manifest.
func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	return ParseMetadata(raw)
}

// ParseMetadata validates raw manifest JSON against the schema and the fixed
// preprocessing contract.
func ParseMetadata(raw []byte) (Metadata, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(metadataSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Metadata{}, fmt.Errorf("invalid metadata: %s", strings.Join(msgs, "; "))
	}

	var md Metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if !slices.Equal(md.InputShape, InputShape) {
		return Metadata{}, fmt.Errorf("metadata input_shape %v does not match preprocessing shape %v", md.InputShape, InputShape)
	}
	if md.ImageSize != 0 && md.ImageSize != InputSize {
		return Metadata{}, fmt.Errorf("metadata image_size %d does not match preprocessing size %d", md.ImageSize, InputSize)
	}
	return md, nil
}

// OutputSize is the number of scores the model emits per image.
func (m Metadata) OutputSize() int {
	return elementCount(m.OutputShape)
}
