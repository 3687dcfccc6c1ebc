package magetasks

import (
	"errors"
	"fmt"
)

var golangciDisabled = "--disable=exhaustruct,varnamelen,ireturn,wrapcheck,nlreturn,gochecknoglobals,mnd,depguard,tagalign"

// LintAll runs every linter. Missing optional linters are skipped.
func LintAll() error {
	var errs []error
	for _, lint := range []func() error{LintFormat, LintVet, LintStaticcheck, LintGolangci} {
		if err := lint(); err != nil && !IsCommandNotFound(err) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	PrintSuccess("All linters passed")
	return nil
}

// LintFormat lists files gofmt would change.
func LintFormat() error {
	return Run("Go Format", "gofmt", "-l", "-d", ".")
}

// LintVet runs go vet, including the acceptance suite.
func LintVet() error {
	return Run("Go Vet", "go", "vet", "-tags", "acceptance", "./...")
}

// LintStaticcheck runs staticcheck.
func LintStaticcheck() error {
	return optional("Staticcheck", "honnef.co/go/tools/cmd/staticcheck@latest", "staticcheck", "./...")
}

// LintGolangci runs golangci-lint.
func LintGolangci() error {
	return optional("Golangci-lint", "github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
		"golangci-lint", "run", golangciDisabled, "--timeout=5m", "./...")
}

// LintGolangciFix runs golangci-lint with auto-fixes.
func LintGolangciFix() error {
	return optional("Golangci-lint Fix", "github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
		"golangci-lint", "run", "--fix", golangciDisabled, "--timeout=5m", "./...")
}

// optional runs a linter that may not be installed.
func optional(name, install, cmd string, args ...string) error {
	if err := Run(name, cmd, args...); err != nil {
		if IsCommandNotFound(err) {
			PrintWarning(fmt.Sprintf("%s not found (install: go install %s)", name, install))
			return err
		}
		return fmt.Errorf("%s failed: %w", cmd, err)
	}
	return nil
}
