// Package config resolves the launcher configuration once at startup using Viper.
//
// Configuration sources (in priority order):
//  1. Launcher environment variables (DOTNET_LAUNCHER_*)
//  2. Snap environment (SNAP, SNAP_COMMON, DOTNET_INSTALL_DIR)
//  3. Config file ($SNAP_COMMON/launcher.yaml, then ~/.config/dotnet-launcher/launcher.yaml)
//  4. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	clierrors "github.com/canonical/dotnet-launcher/internal/errors"
	"github.com/canonical/dotnet-launcher/internal/paths"
)

// Environment variables provided by the snap.
const (
	EnvInstallDir = "DOTNET_INSTALL_DIR"
	EnvSnap       = "SNAP"
	EnvSnapCommon = "SNAP_COMMON"
)

const (
	// DefaultBootstrapMarker exists once the manifest content snap is installed.
	DefaultBootstrapMarker = "/snap/dotnet-manifest/current/supported.json"
	// DefaultBootstrapSnap is the content snap holding the component manifest.
	DefaultBootstrapSnap = "dotnet-manifest"
	// DefaultSnapCommand installs the bootstrap snap.
	DefaultSnapCommand = "snap"
	// DefaultInstallerLiteral selects installer mode when given as the first argument.
	DefaultInstallerLiteral = "installer"
	// DefaultInstallerBinary is the installer tool shipped at the snap root.
	DefaultInstallerBinary = "Dotnet.Installer.Console"
	// DefaultRuntimeBinary is the .NET host inside the install directory.
	DefaultRuntimeBinary = "dotnet"
	// DefaultPkexecPath is checked to decide between pkexec and sudo.
	DefaultPkexecPath = "/usr/bin/pkexec"
	// DefaultSudoCommand is the fallback elevation helper.
	DefaultSudoCommand = "sudo"

	manifestRelPath = "snap/manifest.json"
	envPrefix       = "DOTNET_LAUNCHER"
)

// DefaultElevatedVerbs are the installer verbs that need root.
func DefaultElevatedVerbs() []string {
	return []string{"install", "remove"}
}

// DefaultInstallArgs are passed to the installer on first run.
func DefaultInstallArgs() []string {
	return []string{"install", "sdk", "latest"}
}

// Config holds the resolved launcher configuration.
type Config struct {
	InstallDir string
	SnapRoot   string
	SnapCommon string

	BootstrapMarker string
	BootstrapSnap   string
	SnapCommand     string

	InstallerLiteral   string
	InstallerBinary    string
	RuntimeBinary      string
	ElevatedVerbs      []string
	DefaultInstallArgs []string

	PkexecPath  string
	SudoCommand string

	Log LogConfig

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string
}

// LogConfig holds the structured logging settings.
type LogConfig struct {
	Level  string
	Format string
	File   string
	Stderr string
}

// Load reads configuration from all sources.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("bootstrap.marker", DefaultBootstrapMarker)
	v.SetDefault("bootstrap.snap", DefaultBootstrapSnap)
	v.SetDefault("bootstrap.snap_command", DefaultSnapCommand)
	v.SetDefault("installer.literal", DefaultInstallerLiteral)
	v.SetDefault("installer.binary", DefaultInstallerBinary)
	v.SetDefault("installer.elevated_verbs", DefaultElevatedVerbs())
	v.SetDefault("runtime.binary", DefaultRuntimeBinary)
	v.SetDefault("default_install.args", DefaultInstallArgs())
	v.SetDefault("elevation.pkexec_path", DefaultPkexecPath)
	v.SetDefault("elevation.sudo", DefaultSudoCommand)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.stderr", "off")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Snap-provided variables keep their own names.
	for key, env := range map[string]string{
		"install_dir": EnvInstallDir,
		"snap":        EnvSnap,
		"snap_common": EnvSnapCommon,
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	v.SetConfigName("launcher")
	v.SetConfigType("yaml")

	if common := v.GetString("snap_common"); common != "" {
		v.AddConfigPath(common)
	}

	if root, err := paths.ConfigRoot(); err == nil {
		v.AddConfigPath(root)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, clierrors.Wrap(clierrors.ExitConfig, "Failed to read launcher config file", err)
		}
	}

	if used := v.ConfigFileUsed(); used != "" {
		if err := ValidateFile(used); err != nil {
			return nil, clierrors.Wrap(clierrors.ExitConfig, "Invalid launcher config file", err).
				WithHint(fmt.Sprintf("Check the keys in %s", used))
		}
	}

	return &Config{
		InstallDir:         strings.TrimSpace(v.GetString("install_dir")),
		SnapRoot:           strings.TrimSpace(v.GetString("snap")),
		SnapCommon:         strings.TrimSpace(v.GetString("snap_common")),
		BootstrapMarker:    v.GetString("bootstrap.marker"),
		BootstrapSnap:      v.GetString("bootstrap.snap"),
		SnapCommand:        v.GetString("bootstrap.snap_command"),
		InstallerLiteral:   v.GetString("installer.literal"),
		InstallerBinary:    v.GetString("installer.binary"),
		RuntimeBinary:      v.GetString("runtime.binary"),
		ElevatedVerbs:      v.GetStringSlice("installer.elevated_verbs"),
		DefaultInstallArgs: v.GetStringSlice("default_install.args"),
		PkexecPath:         v.GetString("elevation.pkexec_path"),
		SudoCommand:        v.GetString("elevation.sudo"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			File:   v.GetString("log.file"),
			Stderr: v.GetString("log.stderr"),
		},
		ConfigFile: v.ConfigFileUsed(),
	}, nil
}

// IsElevatedVerb reports whether an installer verb requires root.
func (c *Config) IsElevatedVerb(verb string) bool {
	return slices.Contains(c.ElevatedVerbs, verb)
}

// RequireInstallDir returns the .NET install directory or EnvNotSet.
func (c *Config) RequireInstallDir() (string, error) {
	if c.InstallDir == "" {
		return "", clierrors.EnvNotSet(EnvInstallDir)
	}

	return c.InstallDir, nil
}

// InstallerPath returns the installer tool location inside the snap.
func (c *Config) InstallerPath() (string, error) {
	if c.SnapRoot == "" {
		return "", clierrors.EnvNotSet(EnvSnap)
	}

	return filepath.Join(c.SnapRoot, c.InstallerBinary), nil
}

// ManifestPath returns the installed-components manifest location.
func (c *Config) ManifestPath() (string, error) {
	if c.SnapCommon == "" {
		return "", clierrors.EnvNotSet(EnvSnapCommon)
	}

	return filepath.Join(c.SnapCommon, manifestRelPath), nil
}

// RuntimePath returns the .NET host executable location.
func (c *Config) RuntimePath() (string, error) {
	dir, err := c.RequireInstallDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, c.RuntimeBinary), nil
}
