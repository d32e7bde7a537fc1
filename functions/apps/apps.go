// Package apps provides desktop application launchers. Launches are fire
// and forget; a function reports what it started, not whether the user kept
// it open.
package apps

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pkg/browser"
	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/registry"
)

type module struct{}

var Module registry.Module = module{}

func (module) Name() string { return "apps" }

func (module) Functions() []registry.Function {
	return []registry.Function{
		registry.NewFunction("open_chrome", "Open the web browser with an optional URL.", openChrome),
		registry.NewFunction("open_calculator", "Open the calculator application.", openCalculator),
		registry.NewFunction("open_notepad", "Open a text editor with an optional filename.", openNotepad),
	}
}

type openChromeInput struct {
	URL string `json:"url,omitempty" jsonschema:"default=https://www.google.com"`
}

func openChrome(ctx context.Context, in openChromeInput) (any, error) {
	url := in.URL
	if url == "" {
		url = "https://www.google.com"
	}
	if err := browser.OpenURL(url); err != nil {
		return nil, errors.Wrapf(err, "failed to open browser")
	}
	return fmt.Sprintf("Browser opened with URL: %s", url), nil
}

type openCalculatorInput struct{}

func openCalculator(ctx context.Context, _ openCalculatorInput) (any, error) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("calc")
	case "darwin":
		cmd = exec.Command("open", "-a", "Calculator")
	default:
		cmd = exec.Command("gnome-calculator")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to open calculator")
	}
	return "Calculator opened", nil
}

type openNotepadInput struct {
	Filename string `json:"filename,omitempty"`
}

func openNotepad(ctx context.Context, in openNotepadInput) (any, error) {
	var name string
	var args []string
	switch runtime.GOOS {
	case "windows":
		name = "notepad"
	case "darwin":
		name, args = "open", []string{"-a", "TextEdit"}
	default:
		name = "gedit"
	}
	if in.Filename != "" {
		args = append(args, in.Filename)
	}
	if err := exec.Command(name, args...).Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to open editor")
	}

	if in.Filename != "" {
		return fmt.Sprintf("Editor opened with file: %s", in.Filename), nil
	}
	return "Editor opened", nil
}
