package magetasks

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dkoosis/shopkit/pkg/render"
)

// Out receives task output.
var Out io.Writer = os.Stdout

var theme = render.DefaultTheme()

// PrintH1Header prints a top-level header with decoration.
func PrintH1Header(title string) {
	width := 80
	rule := theme.Muted.Render(strings.Repeat("=", width))
	padding := (width - len(title)) / 2
	fmt.Fprintf(Out, "\n%s\n%s%s\n%s\n\n", rule, strings.Repeat(" ", padding), theme.Bold.Render(title), rule)
}

// PrintH2Header prints a section header.
func PrintH2Header(title string) {
	fmt.Fprintf(Out, "\n%s\n\n", theme.Primary.Render("=== "+title+" ==="))
}

func PrintSuccess(msg string) { printIcon(theme.Success.Render(theme.Icons.Pass), msg) }
func PrintWarning(msg string) { printIcon(theme.Warning.Render(theme.Icons.Warn), msg) }
func PrintError(msg string)   { printIcon(theme.Error.Render(theme.Icons.Fail), msg) }
func PrintInfo(msg string)    { printIcon(theme.Info.Render(theme.Icons.Info), msg) }

func printIcon(icon, msg string) {
	fmt.Fprintf(Out, "%s %s\n", icon, msg)
}
