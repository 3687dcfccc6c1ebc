package magetasks

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/magefile/mage/sh"
)

// IsCommandNotFound checks if the error indicates the command was not found.
// sh wraps exec errors with %v, so the message is matched as well.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "executable file not found") ||
		strings.Contains(errStr, "no such file or directory")
}

// Run prints name and runs the command with its output attached.
func Run(name, cmd string, args ...string) error {
	PrintInfo(name)
	return sh.RunV(cmd, args...)
}
