// Package manifest reads the installer's local manifest of installed components.
//
// The launcher only looks at how many records the manifest holds. Component
// fields are decoded on demand for logging and never drive control flow.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/tidwall/jsonc"
)

// sdkComponentName is the component name the installer uses for SDKs.
const sdkComponentName = "sdk"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Component is the installer's view of one installed record. Keys match
// case-insensitively, as the installer writes PascalCase.
type Component struct {
	Key          string        `json:"key"`
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	Installation *Installation `json:"installation,omitempty"`
}

// Installation records when a component was installed. The timestamp is
// kept verbatim; its format belongs to the installer.
type Installation struct {
	InstalledAt string `json:"installedAt"`
}

// Local is the list of installed component records, kept opaque.
type Local []json.RawMessage

// Empty reports whether no component is installed.
func (l Local) Empty() bool {
	return len(l) == 0
}

// Components decodes the records that have the component shape and skips
// the rest.
func (l Local) Components() []Component {
	components := make([]Component, 0, len(l))

	for _, raw := range l {
		var c Component
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}

		components = append(components, c)
	}

	return components
}

// LatestSDK returns the highest installed SDK version, if any parses.
func (l Local) LatestSDK() (*semver.Version, bool) {
	var latest *semver.Version

	for _, c := range l.Components() {
		if !strings.EqualFold(c.Name, sdkComponentName) {
			continue
		}

		v, err := semver.NewVersion(c.Version)
		if err != nil {
			continue
		}

		if latest == nil || v.GreaterThan(latest) {
			latest = v
		}
	}

	return latest, latest != nil
}

// ParseError reports a manifest that exists but cannot be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads the manifest at path. A missing file means nothing is installed
// yet. Comments and trailing commas are tolerated, as is a UTF-8 BOM.
func Load(path string) (Local, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Local{}, nil
		}

		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return Parse(path, data)
}

// Parse decodes manifest content. path is only used in errors.
func Parse(path string, data []byte) (Local, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Path: path, Err: errors.New("empty document")}
	}

	var local Local
	if err := json.Unmarshal(jsonc.ToJSON(data), &local); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if local == nil {
		// A literal null is not a list of components.
		return nil, &ParseError{Path: path, Err: errors.New("manifest is not a JSON array")}
	}

	return local, nil
}

// MarkerExists reports whether the bootstrap marker file is present.
func MarkerExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
