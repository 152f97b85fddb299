package launcher

import "github.com/canonical/dotnet-launcher/internal/config"

// Mode selects which binary receives the command line.
type Mode int

const (
	// ModeRuntime forwards everything to the .NET host.
	ModeRuntime Mode = iota
	// ModeInstaller forwards everything after the literal to the installer.
	ModeInstaller
)

func (m Mode) String() string {
	switch m {
	case ModeInstaller:
		return "installer"
	default:
		return "runtime"
	}
}

// Invocation is a classified command line.
type Invocation struct {
	Mode Mode

	// Args are forwarded verbatim to the selected binary.
	Args []string

	// Elevate is set for installer verbs that need root.
	Elevate bool
}

// Classify decides how to dispatch args. Only an exact first-argument match
// of the installer literal selects installer mode; the verb is the argument
// right after it.
func Classify(cfg *config.Config, args []string) Invocation {
	if len(args) == 0 || args[0] != cfg.InstallerLiteral {
		return Invocation{Mode: ModeRuntime, Args: args}
	}

	forwarded := args[1:]

	return Invocation{
		Mode:    ModeInstaller,
		Args:    forwarded,
		Elevate: len(forwarded) > 0 && cfg.IsElevatedVerb(forwarded[0]),
	}
}
