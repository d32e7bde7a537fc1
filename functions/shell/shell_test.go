package shell_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/functions/shell"
	"github.com/prashantdagar001/automation-api/registry"
	"github.com/stretchr/testify/require"
)

func find(t *testing.T, name string) registry.Function {
	t.Helper()
	for _, fn := range shell.Module.Functions() {
		if fn.Name() == name {
			return fn
		}
	}
	t.Fatalf("function %s not found", name)
	return nil
}

func TestRunCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell test")
	}

	result, err := find(t, "run_command").Call(context.TODO(), map[string]any{
		"command": "echo hello",
	})
	require.NoError(t, err)

	payload := result.(map[string]any)
	require.Equal(t, true, payload["success"])
	require.Equal(t, "hello\n", payload["output"])
	require.Equal(t, "echo hello", payload["command"])
}

func TestRunCommandFailureIsData(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell test")
	}

	result, err := find(t, "run_command").Call(context.TODO(), map[string]any{
		"command": "ls /definitely/not/here",
	})
	require.NoError(t, err)

	payload := result.(map[string]any)
	require.Equal(t, false, payload["success"])
	require.NotEmpty(t, payload["error"])
}

func TestRunCommandRequiresCommand(t *testing.T) {
	_, err := find(t, "run_command").Call(context.TODO(), map[string]any{})
	require.ErrorIs(t, err, errors.ErrMissingParameter)
}

func TestCreateDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")

	result, err := find(t, "create_directory").Call(context.TODO(), map[string]any{
		"path": path,
	})
	require.NoError(t, err)
	require.Equal(t, "Directory created at: "+path, result)

	// Creating an existing directory is fine.
	_, err = find(t, "create_directory").Call(context.TODO(), map[string]any{
		"path": path,
	})
	require.NoError(t, err)
}

func TestListDirectoryContents(t *testing.T) {
	dir := t.TempDir()
	_, err := find(t, "create_directory").Call(context.TODO(), map[string]any{
		"path": filepath.Join(dir, "sub"),
	})
	require.NoError(t, err)

	result, err := find(t, "list_directory_contents").Call(context.TODO(), map[string]any{
		"path": dir,
	})
	require.NoError(t, err)

	payload := result.(map[string]any)
	require.Equal(t, 1, payload["count"])
	require.Equal(t, []string{"sub"}, payload["items"])
}

func TestListDirectoryContentsMissingPath(t *testing.T) {
	_, err := find(t, "list_directory_contents").Call(context.TODO(), map[string]any{
		"path": "/definitely/not/here",
	})
	require.Error(t, err)
}
