//go:build !unix

package elevation

import "os"

// EffectiveUID returns -1: there is no root identity to detect off unix.
func EffectiveUID() int {
	return -1
}

// IsExecutable reports whether path exists.
func IsExecutable(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
