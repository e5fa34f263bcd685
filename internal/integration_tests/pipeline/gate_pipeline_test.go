package pipeline_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verigate/verigate/internal/runstore"
	"github.com/verigate/verigate/internal/testutil"
)

func requireTools(t *testing.T) {
	t.Helper()
	for _, tool := range []string{"git", "sh"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available in PATH", tool)
		}
	}
}

func gitIn(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=gate", "GIT_AUTHOR_EMAIL=gate@test.invalid",
		"GIT_COMMITTER_NAME=gate", "GIT_COMMITTER_EMAIL=gate@test.invalid",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

// initOrigin builds a repository whose manifest has exactly lineCount lines,
// with known content on lines 17 and 18.
func initOrigin(t *testing.T, lineCount int) string {
	t.Helper()
	dir := t.TempDir()

	lines := make([]string, lineCount)
	for i := range lines {
		lines[i] = fmt.Sprintf("# filler %02d", i+1)
	}
	if lineCount >= 17 {
		lines[16] = `crate-type = ["cdylib", "rlib"]`
	}
	if lineCount >= 18 {
		lines[17] = `[dev-dependencies]`
	}
	manifest := strings.Join(lines, "\n") + "\n"

	gitIn(t, dir, "init")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(manifest), 0o644))
	gitIn(t, dir, "add", ".")
	gitIn(t, dir, "commit", "-m", "initial")
	return dir
}

// writeStubVerifier creates a shell script that records its arguments and the
// state of the manifest it sees, standing in for the real verifier.
func writeStubVerifier(t *testing.T) string {
	t.Helper()
	script := `#!/bin/sh
printf '%s\n' "$@" > "$RESULT_FILE"
grep -c '' Cargo.toml >> "$RESULT_FILE"
sed -n '17p' Cargo.toml >> "$RESULT_FILE"
`
	path := filepath.Join(t.TempDir(), "kani-stub")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func gateWorkflow(resultFile, verifier string) string {
	return fmt.Sprintf(`
workflow "kani-gate" {
  default_branch = "master"

  env = {
    RESULT_FILE = %q
  }

  on {
    dispatch {}
  }

  step "checkout" "sources" {
    arguments {
      repo = event.repo
      ref  = event.revision
    }
  }

  step "patch" "drop-line" {
    arguments {
      file = "Cargo.toml"
      line = 17
    }
  }

  step "verify" "kani" {
    arguments {
      command = %q
    }
  }
}
`, resultFile, verifier)
}

func runPipeline(t *testing.T, repo, resultFile, verifier string) *testutil.HarnessResult {
	t.Helper()
	return testutil.RunIntegrationTest(t, testutil.Options{
		Files: map[string]string{
			"workflows/gate.hcl":            gateWorkflow(resultFile, verifier),
			"actions/checkout/manifest.hcl": testutil.CheckoutManifest,
			"actions/patch/manifest.hcl":    testutil.PatchManifest,
			"actions/verify/manifest.hcl":   testutil.VerifyManifest,
		},
		EventKind: "dispatch",
		Repo:      repo,
	})
}

func TestGatePipeline_CheckoutPatchVerify(t *testing.T) {
	requireTools(t)

	// Arrange
	origin := initOrigin(t, 20)
	resultFile := filepath.Join(t.TempDir(), "verifier-run.txt")
	verifier := writeStubVerifier(t)

	// Act
	result := runPipeline(t, origin, resultFile, verifier)

	// Assert
	require.NoError(t, result.Err)
	runs := result.Runs()
	require.Len(t, runs, 1)
	require.Equal(t, runstore.StatusSucceeded, runs[0].Status)
	for _, step := range runs[0].Steps {
		require.Equal(t, runstore.StatusSucceeded, step.Status, "step %q", step.Name)
	}

	// The stub saw exactly the restricted-mode flag, a manifest one line
	// shorter, and the old line 18 promoted into slot 17.
	recorded, err := os.ReadFile(resultFile)
	require.NoError(t, err)
	got := strings.Split(strings.TrimSuffix(string(recorded), "\n"), "\n")
	require.Equal(t, []string{"--only-codegen", "19", "[dev-dependencies]"}, got)

	// The gate operated on a clone; the origin manifest is untouched.
	originManifest, err := os.ReadFile(filepath.Join(origin, "Cargo.toml"))
	require.NoError(t, err)
	require.Equal(t, 20, strings.Count(string(originManifest), "\n"))
	require.Contains(t, string(originManifest), `crate-type = ["cdylib", "rlib"]`)
}

func TestGatePipeline_CheckoutFailureRunsNothingElse(t *testing.T) {
	requireTools(t)

	// Arrange: the repository does not exist.
	resultFile := filepath.Join(t.TempDir(), "verifier-run.txt")
	verifier := writeStubVerifier(t)
	missingRepo := filepath.Join(t.TempDir(), "no-such-repo")

	// Act
	result := runPipeline(t, missingRepo, resultFile, verifier)

	// Assert
	require.Error(t, result.Err)
	runs := result.Runs()
	require.Len(t, runs, 1)
	require.Equal(t, runstore.StatusFailed, runs[0].Status)
	require.Equal(t, runstore.StatusFailed, runs[0].Steps[0].Status)
	require.Equal(t, runstore.StatusSkipped, runs[0].Steps[1].Status)
	require.Equal(t, runstore.StatusSkipped, runs[0].Steps[2].Status)
	require.NoFileExists(t, resultFile, "the verifier must never have been invoked")
}

func TestGatePipeline_PatchFailureNeverReachesTheVerifier(t *testing.T) {
	requireTools(t)

	// Arrange: a manifest too short to have a line 17.
	origin := initOrigin(t, 5)
	resultFile := filepath.Join(t.TempDir(), "verifier-run.txt")
	verifier := writeStubVerifier(t)

	// Act
	result := runPipeline(t, origin, resultFile, verifier)

	// Assert
	require.Error(t, result.Err)
	runs := result.Runs()
	require.Len(t, runs, 1)
	require.Equal(t, runstore.StatusSucceeded, runs[0].Steps[0].Status)
	require.Equal(t, runstore.StatusFailed, runs[0].Steps[1].Status)
	require.Contains(t, runs[0].Steps[1].Error, "beyond the end of the file")
	require.Equal(t, runstore.StatusSkipped, runs[0].Steps[2].Status)
	require.NoFileExists(t, resultFile, "the verifier must never have been invoked")
}
