package magetasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/magefile/mage/sh"
)

// BuildAll builds the shopkit binary with version metadata.
func BuildAll() error {
	PrintH2Header("Build")

	ldflags := Ldflags(gitOutput("dev", "describe", "--tags", "--always", "--dirty", "--match=v*"),
		gitOutput("unknown", "rev-parse", "--short", "HEAD"),
		time.Now().UTC().Format(time.RFC3339))

	if err := Run("Building shopkit", "go", "build", "-ldflags", ldflags, "-o", BinPath, "./cmd/shopkit"); err != nil {
		PrintError("Build failed")
		return err
	}
	PrintSuccess(fmt.Sprintf("Built: %s", BinPath))
	return nil
}

// Ldflags stamps the version package.
func Ldflags(version, commit, date string) string {
	pkg := ModulePath + "/internal/version"
	return fmt.Sprintf("-s -w -X '%s.Version=%s' -X '%s.CommitHash=%s' -X '%s.BuildDate=%s'",
		pkg, version, pkg, commit, pkg, date)
}

// Clean removes build artifacts.
func Clean() error {
	PrintH2Header("Clean")
	if err := sh.Rm("bin"); err != nil {
		return err
	}
	if err := sh.Rm("coverage.out"); err != nil {
		return err
	}
	PrintSuccess("Cleaned build artifacts")
	return nil
}

func gitOutput(fallback string, args ...string) string {
	out, err := sh.Output("git", args...)
	if err != nil || strings.TrimSpace(out) == "" {
		return fallback
	}
	return strings.TrimSpace(out)
}
