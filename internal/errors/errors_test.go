package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestChildExitCodesAreForwarded(t *testing.T) {
	tests := []struct {
		name       string
		err        *CLIError
		wantCode   int
		wantSilent bool
	}{
		{name: "child exited", err: ChildExited(3), wantCode: 3, wantSilent: true},
		{name: "bootstrap failed", err: BootstrapFailed(77), wantCode: 77, wantSilent: true},
		{name: "default install failed", err: DefaultInstallFailed(126), wantCode: 126, wantSilent: true},
		{name: "interrupted", err: Interrupted(), wantCode: ExitInterrupted, wantSilent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", tt.err.Code, tt.wantCode)
			}

			if tt.err.Silent() != tt.wantSilent {
				t.Errorf("Silent() = %v, want %v", tt.err.Silent(), tt.wantSilent)
			}
		})
	}
}

func TestCLIError_ErrorString(t *testing.T) {
	if got := ChildExited(5).Error(); got != "exit status 5" {
		t.Errorf("Error() = %q, want %q", got, "exit status 5")
	}

	cause := fmt.Errorf("unexpected end of JSON input")
	err := ManifestMalformed("/var/snap/dotnet/common/snap/manifest.json", cause)

	if !strings.Contains(err.Error(), "manifest.json") || !strings.Contains(err.Error(), "unexpected end") {
		t.Errorf("Error() = %q, want path and cause", err.Error())
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	if err.Code != ExitConfig {
		t.Errorf("code = %d, want %d", err.Code, ExitConfig)
	}
}

func TestEnvNotSet(t *testing.T) {
	err := EnvNotSet("SNAP_COMMON")

	if !strings.Contains(err.Message, "SNAP_COMMON") {
		t.Errorf("message = %q, want to contain SNAP_COMMON", err.Message)
	}

	if err.Hint == "" {
		t.Error("hint is empty")
	}
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", SpawnFailed("dotnet", fmt.Errorf("no such file")))

	var cliErr *CLIError
	if !As(wrapped, &cliErr) {
		t.Fatal("As() = false, want true")
	}

	if cliErr.Code != ExitGeneral {
		t.Errorf("code = %d, want %d", cliErr.Code, ExitGeneral)
	}
}

func TestWrapWithHint(t *testing.T) {
	err := Wrap(ExitConfig, "bad config", fmt.Errorf("boom")).WithHint("fix it")

	if err.Hint != "fix it" || err.Code != ExitConfig {
		t.Errorf("got %+v", err)
	}

	if err.Silent() {
		t.Error("error with message reported silent")
	}
}
