package magetasks

import (
	"github.com/magefile/mage/sh"
)

// TestAll runs the unit tests.
func TestAll() error {
	PrintH2Header("Tests")
	if err := Run("Running tests", "go", "test", "./..."); err != nil {
		PrintError("Tests failed")
		return err
	}
	PrintSuccess("All tests passed")
	return nil
}

// TestCoverage runs tests with coverage.
func TestCoverage() error {
	PrintH2Header("Test Coverage")
	if err := Run("Running tests with coverage", "go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		PrintError("Tests failed")
		return err
	}
	_ = sh.RunV("go", "tool", "cover", "-func=coverage.out")
	PrintSuccess("Coverage report generated")
	return nil
}

// TestRace runs tests with race detector.
func TestRace() error {
	PrintH2Header("Race Detector")
	if err := Run("Running tests with race detector", "go", "test", "-race", "./..."); err != nil {
		PrintError("Race detector found issues")
		return err
	}
	PrintSuccess("No race conditions detected")
	return nil
}

// TestAcceptance runs the godog scenarios against the binary at BinPath.
func TestAcceptance() error {
	PrintH2Header("Acceptance")
	env := map[string]string{"SHOPKIT_BIN": binAbs()}
	PrintInfo("Running acceptance scenarios")
	if err := sh.RunWithV(env, "go", "test", "-tags", "acceptance", "-count=1", "./features/..."); err != nil {
		PrintError("Acceptance scenarios failed")
		return err
	}
	PrintSuccess("Acceptance scenarios passed")
	return nil
}
