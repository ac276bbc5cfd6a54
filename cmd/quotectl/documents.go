package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var nowFunc = time.Now

// formatForPath picks yaml for .yaml and .yml files, json otherwise
func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// readDocument decodes a JSON or YAML file into v. YAML goes through a
// generic tree so the JSON field names and validating decoders apply.
func readDocument(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if formatForPath(path) == "yaml" {
		var tree interface{}
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		data, err = json.Marshal(tree)
		if err != nil {
			return fmt.Errorf("convert %s: %w", path, err)
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeDocument encodes v as indented JSON or as YAML keyed by the JSON
// field names
func writeDocument(w io.Writer, format string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	switch strings.ToLower(format) {
	case "json", "":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml", "yml":
		var tree interface{}
		if err := json.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func parseIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid version index %q", arg)
	}
	return index, nil
}
