package domains

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Defaults returns the built-in registry file.
func Defaults() File {
	f, err := Parse(bytes.NewReader(defaultsYAML))
	if err != nil {
		panic(fmt.Sprintf("domains: embedded defaults: %v", err))
	}
	return f
}

// Parse decodes a registry file. Unknown keys are rejected.
func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("decode domains file: %w", err)
	}
	return f, nil
}

// LoadFile reads path, or the embedded defaults when path is empty.
func LoadFile(path string) (File, error) {
	if path == "" {
		return Defaults(), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer fh.Close()
	return Parse(fh)
}
