// Package loader decodes structured documents (device catalogs, fixture
// pages) from JSON, YAML, or TOML, picking the format from the file
// extension or, failing that, from the content.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var (
	tomlSectionPattern  = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	tomlKeyValuePattern = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// FormatFromExtension maps a file name to a format. The boolean is false for
// unknown extensions.
func FormatFromExtension(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	}
	return "", false
}

// DetectFormat guesses the encoding of data. TOML is checked before JSON
// because "[section]" headers look like JSON arrays; YAML is the fallback
// since it is a superset of JSON.
func DetectFormat(data []byte) Format {
	trimmed := strings.TrimSpace(string(data))
	if isLikelyTOML(trimmed) {
		return FormatTOML
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return FormatJSON
	}
	return FormatYAML
}

// Decode unmarshals data in the given format into v.
func Decode(data []byte, format Format, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("empty input")
	}
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("invalid TOML: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	return nil
}

// DecodeAuto detects the format of data and decodes it into v.
func DecodeAuto(data []byte, v any) (Format, error) {
	format := DetectFormat(data)
	return format, Decode(data, format, v)
}

// LoadFile reads path and decodes it into v. The extension decides the
// format when it is recognised; otherwise the content is sniffed.
func LoadFile(path string, v any) (Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	format, ok := FormatFromExtension(path)
	if !ok {
		format = DetectFormat(data)
	}
	if err := Decode(data, format, v); err != nil {
		return format, fmt.Errorf("%s: %w", path, err)
	}
	return format, nil
}

// isLikelyTOML reports whether input has TOML section headers or mostly
// key = value lines (as opposed to YAML's key: value).
func isLikelyTOML(input string) bool {
	sectionCount := 0
	keyValueCount := 0
	nonEmptyCount := 0

	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmptyCount++

		if tomlSectionPattern.MatchString(line) {
			sectionCount++
		}
		if tomlKeyValuePattern.MatchString(line) {
			keyValueCount++
		}
	}

	if sectionCount > 0 {
		return true
	}
	return nonEmptyCount > 0 && keyValueCount > nonEmptyCount/2
}
