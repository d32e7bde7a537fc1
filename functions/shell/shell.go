// Package shell exposes command execution and filesystem functions.
package shell

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/registry"
)

type module struct{}

var Module registry.Module = module{}

func (module) Name() string { return "shell" }

func (module) Functions() []registry.Function {
	return []registry.Function{
		registry.NewFunction("run_command", "Run a shell command and return the output.", runCommand),
		registry.NewFunction("create_directory", "Create a directory at the specified path.", createDirectory),
		registry.NewFunction("list_directory_contents", "List contents of a directory.", listDirectoryContents),
	}
}

type runCommandInput struct {
	Command string `json:"command" jsonschema:"required"`
}

// runCommand mirrors the shell's own success semantics: a non-zero exit is
// reported in the result payload, not as a function error.
func runCommand(ctx context.Context, in runCommandInput) (any, error) {
	if in.Command == "" {
		return nil, errors.Wrapf(errors.ErrMissingParameter, "command is required")
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", in.Command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", in.Command)
	}

	stdout, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return map[string]any{
				"success": false,
				"error":   string(exitErr.Stderr),
				"command": in.Command,
			}, nil
		}
		return nil, errors.Wrapf(err, "failed to run command")
	}

	return map[string]any{
		"success": true,
		"output":  string(stdout),
		"command": in.Command,
	}, nil
}

type createDirectoryInput struct {
	Path string `json:"path" jsonschema:"required"`
}

func createDirectory(ctx context.Context, in createDirectoryInput) (any, error) {
	if in.Path == "" {
		return nil, errors.Wrapf(errors.ErrMissingParameter, "path is required")
	}
	if err := os.MkdirAll(in.Path, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create directory")
	}
	return "Directory created at: " + in.Path, nil
}

type listDirectoryInput struct {
	Path string `json:"path,omitempty" jsonschema:"default=."`
}

func listDirectoryContents(ctx context.Context, in listDirectoryInput) (any, error) {
	path := in.Path
	if path == "" {
		path = "."
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list directory contents")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	items := make([]string, 0, len(dirEntries))
	for _, e := range dirEntries {
		items = append(items, e.Name())
	}

	return map[string]any{
		"path":  abs,
		"items": items,
		"count": len(items),
	}, nil
}
