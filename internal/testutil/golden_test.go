package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

type recordingTB struct {
	testing.TB
	failed bool
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Errorf(string, ...any) { r.failed = true }

func TestAssertGolden(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := os.MkdirAll("testdata", 0o755); err != nil {
		t.Fatal(err)
	}

	content := "Welcome to .NET on Snap!\n"
	if err := os.WriteFile(filepath.Join("testdata", "banner.golden"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("matching content passes", func(t *testing.T) {
		rec := &recordingTB{TB: t}
		AssertGolden(rec, content, "banner.golden")

		if rec.failed {
			t.Error("AssertGolden failed on matching content")
		}
	})

	t.Run("mismatched content fails", func(t *testing.T) {
		rec := &recordingTB{TB: t}
		AssertGolden(rec, "something else\n", "banner.golden")

		if !rec.failed {
			t.Error("AssertGolden passed on mismatched content")
		}
	})
}

func TestGoldenPath(t *testing.T) {
	if got := GoldenPath("welcome.golden"); got != filepath.Join("testdata", "welcome.golden") {
		t.Errorf("GoldenPath() = %q", got)
	}
}
