package synth_test

import (
	"testing"

	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/registry"
	"github.com/prashantdagar001/automation-api/synth"
	"github.com/stretchr/testify/require"
)

func entry() *registry.FunctionEntry {
	return &registry.FunctionEntry{
		QualifiedName: "sysinfo.get_disk_usage",
		Module:        "sysinfo",
		Name:          "get_disk_usage",
	}
}

func TestRenderSnippet(t *testing.T) {
	r := synth.NewRenderer()

	code, err := r.Render(entry(), map[string]any{
		"path":  "/tmp",
		"human": true,
		"depth": 2,
	})
	require.NoError(t, err)
	require.Contains(t, code, `"path": "/tmp",`)
	require.Contains(t, code, `"human": true,`)
	require.Contains(t, code, `"depth": 2,`)
	require.Contains(t, code, `sysinfo.Call(ctx, "get_disk_usage", map[string]any{`)
	require.Contains(t, code, "// Invocation trace for sysinfo.get_disk_usage.")
}

func TestRenderEscapesQuotes(t *testing.T) {
	r := synth.NewRenderer()

	code, err := r.Render(entry(), map[string]any{
		"path": `some "quoted" dir`,
	})
	require.NoError(t, err)
	require.Contains(t, code, `"path": "some \"quoted\" dir",`)
}

func TestRenderNestedValues(t *testing.T) {
	r := synth.NewRenderer()

	code, err := r.Render(entry(), map[string]any{
		"targets": []any{"a", "b"},
		"options": map[string]any{"force": false, "retries": 3},
	})
	require.NoError(t, err)
	require.Contains(t, code, `"targets": []any{"a", "b"},`)
	require.Contains(t, code, `"options": map[string]any{"force": false, "retries": 3},`)
}

func TestRenderRejectsUnrepresentable(t *testing.T) {
	r := synth.NewRenderer()

	_, err := r.Render(entry(), map[string]any{
		"callback": func() {},
	})
	require.ErrorIs(t, err, errors.ErrUnrepresentable)

	_, err = r.Render(entry(), map[string]any{
		"path": "a\x00b",
	})
	require.ErrorIs(t, err, errors.ErrUnrepresentable)

	_, err = r.Render(entry(), map[string]any{
		"bad name); doEvil(": "x",
	})
	require.ErrorIs(t, err, errors.ErrUnrepresentable)
}

func TestRenderNoParams(t *testing.T) {
	r := synth.NewRenderer()

	code, err := r.Render(&registry.FunctionEntry{
		QualifiedName: "apps.open_calculator",
		Module:        "apps",
		Name:          "open_calculator",
	}, nil)
	require.NoError(t, err)
	require.Contains(t, code, `apps.Call(ctx, "open_calculator", map[string]any{`)
}
