//go:build unix

package elevation

import "golang.org/x/sys/unix"

// EffectiveUID returns the effective user id of the launcher.
func EffectiveUID() int {
	return unix.Geteuid()
}

// IsExecutable reports whether path exists and is executable by the launcher.
func IsExecutable(path string) bool {
	return unix.Access(path, unix.X_OK) == nil
}
