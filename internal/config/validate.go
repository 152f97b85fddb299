package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSchema lists every key launcher.yaml may set. Unknown keys are
// rejected so a typo does not silently fall back to a default.
type fileSchema struct {
	Bootstrap *struct {
		Marker      string `yaml:"marker"`
		Snap        string `yaml:"snap"`
		SnapCommand string `yaml:"snap_command"`
	} `yaml:"bootstrap"`

	Installer *struct {
		Literal       string   `yaml:"literal"`
		Binary        string   `yaml:"binary"`
		ElevatedVerbs []string `yaml:"elevated_verbs"`
	} `yaml:"installer"`

	Runtime *struct {
		Binary string `yaml:"binary"`
	} `yaml:"runtime"`

	DefaultInstall *struct {
		Args []string `yaml:"args"`
	} `yaml:"default_install"`

	Elevation *struct {
		PkexecPath string `yaml:"pkexec_path"`
		Sudo       string `yaml:"sudo"`
	} `yaml:"elevation"`

	Log *struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
		Stderr string `yaml:"stderr"`
	} `yaml:"log"`
}

// ValidateFile checks that the config file at path only uses known keys.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	return validate(data)
}

func validate(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc fileSchema
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid launcher config: %w", err)
	}

	return nil
}
