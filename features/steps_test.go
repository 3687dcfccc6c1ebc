//go:build acceptance

package features

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/cucumber/godog"
)

// shopkitBin is the binary under test.
var shopkitBin string

func TestMain(m *testing.M) {
	os.Exit(runMain(m))
}

func runMain(m *testing.M) int {
	if bin := os.Getenv("SHOPKIT_BIN"); bin != "" {
		shopkitBin = bin
		return m.Run()
	}

	dir, err := os.MkdirTemp("", "shopkit-acceptance")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer os.RemoveAll(dir)

	shopkitBin = filepath.Join(dir, "shopkit")
	if runtime.GOOS == "windows" {
		shopkitBin += ".exe"
	}
	build := exec.Command("go", "build", "-o", shopkitBin, "../cmd/shopkit")
	build.Stdout, build.Stderr = os.Stderr, os.Stderr
	if err := build.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "build shopkit: %v\n", err)
		return 1
	}
	return m.Run()
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"."},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("acceptance scenarios failed")
	}
}

type appInfo struct {
	AllExtensions []extensionInfo `json:"allExtensions"`
}

type extensionInfo struct {
	Configuration struct {
		Name   string `json:"name"`
		Type   string `json:"type"`
		Handle string `json:"handle"`
	} `json:"configuration"`
	Directory           string `json:"directory"`
	EntrySourceFilePath string `json:"entrySourceFilePath"`
}

// world is the per-scenario state.
type world struct {
	appDirectory string
	env          map[string]string
	lastOutput   string
}

func initializeScenario(sc *godog.ScenarioContext) {
	w := &world{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "shopkit-app")
		if err != nil {
			return ctx, err
		}
		w.appDirectory = dir
		w.env = map[string]string{
			"XDG_CONFIG_HOME":   filepath.Join(dir, ".config"),
			"SHOPKIT_TELEMETRY": "false",
		}
		return ctx, nil
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if w.appDirectory != "" {
			_ = os.RemoveAll(w.appDirectory)
		}
		return ctx, err
	})

	sc.Step(`^I have an app named (.+)$`, w.haveApp)
	sc.Step(`^I create an extension named (.+) of type ([^\s]+) and flavor (.+)$`, w.createExtensionWithFlavor)
	sc.Step(`^I create an extension named (.+) of type ([^\s]+)$`, w.createExtension)
	sc.Step(`^I have an extension named (.+) of type ([^\s]+) and flavor (.+)$`, w.haveExtensionWithFlavor)
	sc.Step(`^I have an extension named (.+) of type ([^\s]+)$`, w.haveExtension)
	sc.Step(`^I do not have an extension named (.+) of type ([^\s]+)$`, w.noExtension)
	sc.Step(`^The extension named (.+) contains the theme extension directories$`, w.hasThemeDirectories)
}

func (w *world) haveApp(name string) error {
	content := fmt.Sprintf("name = %q\n", name)
	return os.WriteFile(filepath.Join(w.appDirectory, "shopify.app.toml"), []byte(content), 0o600)
}

func (w *world) createExtensionWithFlavor(name, typ, flavor string) error {
	w.generate(name, typ, "--flavor", flavor)
	return nil
}

func (w *world) createExtension(name, typ string) error {
	w.generate(name, typ)
	return nil
}

// generate runs app generate extension. Failures are left for the
// following assertion to judge.
func (w *world) generate(name, typ string, extra ...string) {
	args := append([]string{"app", "generate", "extension", "--name", name, "--path", w.appDirectory, "--template", typ}, extra...)
	out, _ := w.exec(args...)
	w.lastOutput = out
}

func (w *world) haveExtensionWithFlavor(name, typ, flavor string) error {
	ext, err := w.requireExtension(name, typ)
	if err != nil {
		return err
	}
	want := "index." + flavorExtension(flavor)
	if got := filepath.Base(ext.EntrySourceFilePath); got != want {
		return fmt.Errorf("entry source is %s, want %s", got, want)
	}
	return nil
}

func (w *world) haveExtension(name, typ string) error {
	_, err := w.requireExtension(name, typ)
	return err
}

func (w *world) noExtension(name, _ string) error {
	info, err := w.appInfo()
	if err != nil {
		return err
	}
	if ext, ok := find(info, name); ok {
		return fmt.Errorf("unexpected extension %s of type %s in %s", name, ext.Configuration.Type, ext.Directory)
	}
	return nil
}

func (w *world) hasThemeDirectories(name string) error {
	info, err := w.appInfo()
	if err != nil {
		return err
	}
	var ext *extensionInfo
	for i := range info.AllExtensions {
		if info.AllExtensions[i].Configuration.Handle == strings.ToLower(name) {
			ext = &info.AllExtensions[i]
			break
		}
	}
	if ext == nil {
		return w.notCreated(info)
	}

	var missing []string
	for _, dir := range []string{"assets", "blocks", "locales", "snippets"} {
		for _, p := range []string{filepath.Join(ext.Directory, dir), filepath.Join(ext.Directory, dir, ".gitkeep")} {
			if _, err := os.Stat(p); err != nil {
				missing = append(missing, p)
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("the following paths were not found in the theme extension: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (w *world) requireExtension(name, typ string) (extensionInfo, error) {
	info, err := w.appInfo()
	if err != nil {
		return extensionInfo{}, err
	}
	ext, ok := find(info, name)
	if !ok {
		return ext, w.notCreated(info)
	}
	if ext.Configuration.Type != typ {
		return ext, fmt.Errorf("extension %s has type %s, want %s", name, ext.Configuration.Type, typ)
	}
	return ext, nil
}

func (w *world) notCreated(info appInfo) error {
	dump, _ := json.MarshalIndent(info, "", "  ")
	return fmt.Errorf("extension not created! Config:\n%s\nlast output:\n%s", dump, w.lastOutput)
}

func (w *world) appInfo() (appInfo, error) {
	var info appInfo
	out, err := w.exec("app", "info", "--json", "--path", w.appDirectory)
	if err != nil {
		return info, fmt.Errorf("app info: %w\n%s", err, out)
	}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return info, fmt.Errorf("decode app info: %w", err)
	}
	return info, nil
}

// exec runs the binary with the scenario env merged over the parent env.
func (w *world) exec(args ...string) (string, error) {
	cmd := exec.Command(shopkitBin, args...)
	cmd.Env = mergeEnv(os.Environ(), w.env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String() + stderr.String(), fmt.Errorf("exit status %d", exitErr.ExitCode())
	}
	return stdout.String(), err
}

func mergeEnv(parent []string, overrides map[string]string) []string {
	env := make(map[string]string, len(parent)+len(overrides)+1)
	for _, kv := range parent {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	for k, v := range overrides {
		env[k] = v
	}
	env["CI"] = "false"

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

func find(info appInfo, name string) (extensionInfo, bool) {
	for _, ext := range info.AllExtensions {
		if ext.Configuration.Name == name || ext.Configuration.Handle == strings.ToLower(name) {
			return ext, true
		}
	}
	return extensionInfo{}, false
}

func flavorExtension(flavor string) string {
	switch flavor {
	case "react":
		return "jsx"
	case "typescript-react":
		return "tsx"
	case "typescript":
		return "ts"
	default:
		return "js"
	}
}
