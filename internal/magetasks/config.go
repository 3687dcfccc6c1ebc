package magetasks

import (
	"os"
	"path/filepath"
)

var (
	// ModulePath is the Go module path.
	ModulePath = "github.com/dkoosis/shopkit"

	// BinPath is the output path for the built binary.
	BinPath = "./bin/shopkit"

	// ProjectRoot is the root directory of the project.
	ProjectRoot string
)

// Initialize sets up the magetasks package.
// Call this from the Magefile init() function.
func Initialize() error {
	var err error
	ProjectRoot, err = os.Getwd()
	if err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(ProjectRoot, "bin"), 0o750)
}

// binAbs returns BinPath resolved against ProjectRoot.
func binAbs() string {
	if filepath.IsAbs(BinPath) {
		return BinPath
	}
	return filepath.Join(ProjectRoot, BinPath)
}
