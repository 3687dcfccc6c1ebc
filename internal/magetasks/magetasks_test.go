package magetasks

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(originalDir) })

	tmpDir := t.TempDir()
	require.NoError(t, os.Chdir(tmpDir))

	require.NoError(t, Initialize())
	assert.DirExists(t, filepath.Join(tmpDir, "bin"))

	expectedRoot, _ := filepath.EvalSymlinks(tmpDir)
	actualRoot, _ := filepath.EvalSymlinks(ProjectRoot)
	assert.Equal(t, expectedRoot, actualRoot)
	assert.Equal(t, filepath.Join(ProjectRoot, "bin", "shopkit"), binAbs())
}

func TestLdflags(t *testing.T) {
	got := Ldflags("v1.2.3", "abc123", "2024-01-01T00:00:00Z")
	assert.Contains(t, got, "-X 'github.com/dkoosis/shopkit/internal/version.Version=v1.2.3'")
	assert.Contains(t, got, "version.CommitHash=abc123")
	assert.Contains(t, got, "version.BuildDate=2024-01-01T00:00:00Z")
}

func TestPrinters(t *testing.T) {
	var buf bytes.Buffer
	old := Out
	Out = &buf
	t.Cleanup(func() { Out = old })

	tests := []struct {
		name  string
		print func(string)
	}{
		{"h1", PrintH1Header},
		{"h2", PrintH2Header},
		{"success", PrintSuccess},
		{"warning", PrintWarning},
		{"error", PrintError},
		{"info", PrintInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.print("Test " + tt.name)
			assert.Contains(t, buf.String(), "Test "+tt.name)
		})
	}
}

func TestIsCommandNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"exec.ErrNotFound", exec.ErrNotFound, true},
		{"wrapped exec.ErrNotFound", errors.Join(errors.New("run"), exec.ErrNotFound), true},
		{"sh style message", errors.New(`failed to run "staticcheck ./...": exec: "staticcheck": executable file not found in $PATH`), true},
		{"no such file or directory", errors.New("no such file or directory"), true},
		{"other error", errors.New("some other error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCommandNotFound(tt.err))
		})
	}
}
