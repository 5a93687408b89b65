package config_test

import (
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/scantist-ossops-m2/wagtail/internal/platform/config"
)

// Exitf calls os.Exit, so the assertion runs in a child process.
func TestExitfExitsWithCode1(t *testing.T) {
	if os.Getenv("SNIPPETS_EXITF_SUBPROCESS") == "1" {
		config.Exitf("fatal: %s", "bad config")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestExitfExitsWithCode1$")
	cmd.Env = append(os.Environ(), "SNIPPETS_EXITF_SUBPROCESS=1")

	out, err := cmd.CombinedOutput()
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected *exec.ExitError, got %T: %v", err, err)
	}
	if exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", exitErr.ExitCode())
	}
	if !strings.Contains(string(out), "fatal: bad config") {
		t.Fatalf("expected stderr to contain %q, got %q", "fatal: bad config", string(out))
	}
}
