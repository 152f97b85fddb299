package elevation

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/canonical/dotnet-launcher/internal/process"
	"github.com/canonical/dotnet-launcher/internal/process/processtest"
)

var installCmd = process.Command{
	Path: "/snap/dotnet/x1/Dotnet.Installer.Console",
	Args: []string{"install", "sdk", "8.0"},
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name        string
		euid        int
		pkexecFound bool
		want        string
		wantDir     bool
	}{
		{name: "root runs directly", euid: 0, pkexecFound: true, want: "direct"},
		{name: "root without pkexec", euid: 0, pkexecFound: false, want: "direct"},
		{name: "user with pkexec", euid: 1000, pkexecFound: true, want: "pkexec", wantDir: true},
		{name: "user without pkexec", euid: 1000, pkexecFound: false, want: "sudo", wantDir: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var checked []string

			elevator := Select(Options{
				PkexecPath:   "/usr/bin/pkexec",
				SudoCommand:  "sudo",
				EffectiveUID: func() int { return tt.euid },
				Exists: func(path string) bool {
					checked = append(checked, path)
					return tt.pkexecFound
				},
			}, processtest.New())

			if elevator.Name() != tt.want {
				t.Errorf("Select() = %s, want %s", elevator.Name(), tt.want)
			}

			if elevator.NeedsInstallDir() != tt.wantDir {
				t.Errorf("NeedsInstallDir() = %v, want %v", elevator.NeedsInstallDir(), tt.wantDir)
			}

			if tt.euid == 0 && len(checked) != 0 {
				t.Errorf("root run checked %v, want no pkexec lookup", checked)
			}
		})
	}
}

func TestDirect_RunsCommandUnwrapped(t *testing.T) {
	rec := processtest.New()
	d := &Direct{Runner: rec}

	result, err := d.Run(context.Background(), installCmd, "/opt/dotnet")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.ExitCode != 0 || result.Mechanism != "direct" {
		t.Errorf("result = %+v, want direct success", result)
	}

	calls := rec.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}

	if calls[0].Path != installCmd.Path || !slices.Equal(calls[0].Args, installCmd.Args) {
		t.Errorf("ran %v, want %v", calls[0].Argv(), installCmd.Argv())
	}

	if calls[0].Env != nil {
		t.Errorf("env = %v, want inherited (nil)", calls[0].Env)
	}
}

func TestDirect_NonZeroIsFatal(t *testing.T) {
	d := &Direct{Runner: processtest.New(processtest.Reply{ExitCode: 5})}

	result, err := d.Run(context.Background(), installCmd, "")

	var failure *DirectFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Run() error = %v, want *DirectFailure", err)
	}

	if failure.ExitCode != 5 || result.ExitCode != 5 {
		t.Errorf("failure = %+v, result = %+v", failure, result)
	}
}

func TestPkexec_WrapsCommandWithInstallDir(t *testing.T) {
	rec := processtest.New(processtest.Reply{ExitCode: 3})
	p := &Pkexec{Path: "/usr/bin/pkexec", Runner: rec}

	result, err := p.Run(context.Background(), installCmd, "/var/snap/dotnet/common/dotnet")
	if err != nil {
		t.Fatalf("Run() error = %v (non-zero exits must be data)", err)
	}

	if result.ExitCode != 3 || result.Declined {
		t.Errorf("result = %+v", result)
	}

	got := rec.Calls()[0]
	want := []string{"/usr/bin/pkexec", "/snap/dotnet/x1/Dotnet.Installer.Console", "install", "sdk", "8.0"}

	if !slices.Equal(got.Argv(), want) {
		t.Errorf("argv = %v, want %v", got.Argv(), want)
	}

	if !slices.Equal(got.Env, []string{"DOTNET_INSTALL_DIR=/var/snap/dotnet/common/dotnet"}) {
		t.Errorf("env = %v", got.Env)
	}
}

func TestPkexec_Declined(t *testing.T) {
	for _, code := range []int{126, 127} {
		p := &Pkexec{Path: "/usr/bin/pkexec", Runner: processtest.New(processtest.Reply{ExitCode: code})}

		result, err := p.Run(context.Background(), installCmd, "/opt/dotnet")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if !result.Declined {
			t.Errorf("exit %d: Declined = false, want true", code)
		}
	}
}

func TestSudo_PreservesInstallDir(t *testing.T) {
	rec := processtest.New()
	s := &Sudo{Command: "sudo", Runner: rec}

	result, err := s.Run(context.Background(), installCmd, "/opt/dotnet")
	if err != nil || result.ExitCode != 0 {
		t.Fatalf("Run() = %+v, %v", result, err)
	}

	got := rec.Calls()[0]
	want := []string{"sudo", "--preserve-env=DOTNET_INSTALL_DIR", "/snap/dotnet/x1/Dotnet.Installer.Console", "install", "sdk", "8.0"}

	if !slices.Equal(got.Argv(), want) {
		t.Errorf("argv = %v, want %v", got.Argv(), want)
	}

	if !slices.Equal(got.Env, []string{"DOTNET_INSTALL_DIR=/opt/dotnet"}) {
		t.Errorf("env = %v", got.Env)
	}
}

func TestSudo_SpawnErrorPropagates(t *testing.T) {
	spawnErr := errors.New("exec: \"sudo\": executable file not found in $PATH")
	s := &Sudo{Command: "sudo", Runner: processtest.New(processtest.Reply{ExitCode: -1, Err: spawnErr})}

	_, err := s.Run(context.Background(), installCmd, "/opt/dotnet")
	if !errors.Is(err, spawnErr) {
		t.Fatalf("Run() error = %v, want spawn error", err)
	}
}
