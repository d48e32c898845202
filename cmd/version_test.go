package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	out := buf.String()
	for _, want := range []string{
		"easel " + Version,
		"Build Time: " + BuildTime,
		"Git Commit: " + GitCommit,
		"Go: go",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionCommand_ViaRoot(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"version"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs([]string{})
	}()

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute(version) error: %v", err)
	}
	if !strings.Contains(buf.String(), "easel") {
		t.Errorf("output missing binary name:\n%s", buf.String())
	}
}

func TestVersionDefaults(t *testing.T) {
	// ldflags leave these untouched in test builds.
	if Version == "" || BuildTime == "" || GitCommit == "" {
		t.Error("version variables must have non-empty defaults")
	}
}
