package registry_test

import (
	"context"
	"testing"

	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/internal/mylog"
	"github.com/prashantdagar001/automation-api/registry"
	"github.com/stretchr/testify/require"
)

type recordingIndexer struct {
	upserts   map[string]string
	fail      error
	failAfter int
}

func (r *recordingIndexer) Upsert(ctx context.Context, qualifiedName, description string) error {
	if r.fail != nil && len(r.upserts) >= r.failAfter {
		return r.fail
	}
	if r.upserts == nil {
		r.upserts = make(map[string]string)
	}
	r.upserts[qualifiedName] = description
	return nil
}

type staticModule struct {
	name      string
	functions []registry.Function
}

func (m staticModule) Name() string                   { return m.name }
func (m staticModule) Functions() []registry.Function { return m.functions }

type greetInput struct {
	Name     string `json:"name" jsonschema:"required"`
	Greeting string `json:"greeting,omitempty" jsonschema:"default=hello"`
}

func greetModule(fns ...registry.Function) staticModule {
	if len(fns) == 0 {
		fns = []registry.Function{
			registry.NewFunction("greet", "Greet somebody by name.", func(ctx context.Context, in greetInput) (any, error) {
				greeting := in.Greeting
				if greeting == "" {
					greeting = "hello"
				}
				return greeting + ", " + in.Name, nil
			}),
		}
	}
	return staticModule{name: "test", functions: fns}
}

func newService(indexer *recordingIndexer) registry.Service {
	logger := mylog.NewLogger("error", "default")
	return registry.NewService(logger, indexer, func(name string) (registry.Module, bool) {
		if name == "test" {
			return greetModule(), true
		}
		return nil, false
	})
}

func TestRegisterIndexesDescriptions(t *testing.T) {
	indexer := &recordingIndexer{}
	svc := newService(indexer)

	summary, err := svc.Register(context.TODO(), greetModule())
	require.NoError(t, err)
	require.Equal(t, []string{"test.greet"}, summary.Registered)
	require.Empty(t, summary.Skipped)
	require.Equal(t, "Greet somebody by name.", indexer.upserts["test.greet"])

	entry, ok := svc.Get("test.greet")
	require.True(t, ok)
	require.Equal(t, "test", entry.Module)
	require.Equal(t, "greet", entry.Name)

	require.Len(t, entry.Parameters, 2)
	require.Equal(t, "name", entry.Parameters[0].Name)
	require.True(t, entry.Parameters[0].Required)
	require.Equal(t, "greeting", entry.Parameters[1].Name)
	require.False(t, entry.Parameters[1].Required)
}

func TestRegisterSkipsUndescribedFunctions(t *testing.T) {
	indexer := &recordingIndexer{}
	svc := newService(indexer)

	module := greetModule(
		registry.NewFunction("documented", "Does something.", func(ctx context.Context, in struct{}) (any, error) {
			return "ok", nil
		}),
		registry.NewFunction("undocumented", "", func(ctx context.Context, in struct{}) (any, error) {
			return "ok", nil
		}),
	)

	summary, err := svc.Register(context.TODO(), module)
	require.NoError(t, err)
	require.Equal(t, []string{"test.documented"}, summary.Registered)
	require.Len(t, summary.Skipped, 1)
	require.Equal(t, "test.undocumented", summary.Skipped[0].QualifiedName)

	_, ok := svc.Get("test.undocumented")
	require.False(t, ok)

	status := svc.Status()
	require.Equal(t, 1, status.Count)
	require.Len(t, status.Skipped, 1)
}

func TestRegisterModulesResolvesByName(t *testing.T) {
	svc := newService(&recordingIndexer{})

	summaries, err := svc.RegisterModules(context.TODO(), []string{"test", "nope"})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Contains(t, summaries, "test")
}

func TestRegisterModulesAllUnknown(t *testing.T) {
	svc := newService(&recordingIndexer{})

	_, err := svc.RegisterModules(context.TODO(), []string{"nope"})
	require.ErrorIs(t, err, errors.ErrImportFailure)
}

func TestRegisterPropagatesIndexerFailure(t *testing.T) {
	indexer := &recordingIndexer{fail: errors.Wrapf(errors.ErrProviderUnavailable, "down")}
	svc := newService(indexer)

	summary, err := svc.Register(context.TODO(), greetModule())
	require.ErrorIs(t, err, errors.ErrProviderUnavailable)
	require.NotNil(t, summary)
	require.Empty(t, summary.Registered)
}

func TestRegisterReportsPartialProgressOnIndexerFailure(t *testing.T) {
	indexer := &recordingIndexer{
		fail:      errors.Wrapf(errors.ErrProviderUnavailable, "down"),
		failAfter: 1,
	}
	svc := newService(indexer)

	module := greetModule(
		registry.NewFunction("first", "Does the first thing.", func(ctx context.Context, in struct{}) (any, error) {
			return "ok", nil
		}),
		registry.NewFunction("second", "Does the second thing.", func(ctx context.Context, in struct{}) (any, error) {
			return "ok", nil
		}),
	)

	summary, err := svc.Register(context.TODO(), module)
	require.ErrorIs(t, err, errors.ErrProviderUnavailable)
	require.NotNil(t, summary)
	require.Equal(t, []string{"test.first"}, summary.Registered)

	_, ok := svc.Get("test.first")
	require.True(t, ok)
	_, ok = svc.Get("test.second")
	require.False(t, ok)
}

func TestRegisterModulesKeepsPartialSummaries(t *testing.T) {
	indexer := &recordingIndexer{
		fail:      errors.Wrapf(errors.ErrProviderUnavailable, "down"),
		failAfter: 1,
	}
	logger := mylog.NewLogger("error", "default")
	svc := registry.NewService(logger, indexer, func(name string) (registry.Module, bool) {
		if name != "test" {
			return nil, false
		}
		return greetModule(
			registry.NewFunction("first", "Does the first thing.", func(ctx context.Context, in struct{}) (any, error) {
				return "ok", nil
			}),
			registry.NewFunction("second", "Does the second thing.", func(ctx context.Context, in struct{}) (any, error) {
				return "ok", nil
			}),
		), true
	})

	summaries, err := svc.RegisterModules(context.TODO(), []string{"test"})
	require.NoError(t, err)
	require.Contains(t, summaries, "test")
	require.Equal(t, []string{"test.first"}, summaries["test"].Registered)
}

func TestTypedFunctionCallDecodesWeakly(t *testing.T) {
	svc := newService(&recordingIndexer{})
	_, err := svc.Register(context.TODO(), greetModule())
	require.NoError(t, err)

	entry, ok := svc.Get("test.greet")
	require.True(t, ok)

	result, err := entry.Function.Call(context.TODO(), map[string]any{
		"name":     "world",
		"greeting": "hi",
	})
	require.NoError(t, err)
	require.Equal(t, "hi, world", result)
}

func TestInvokeRecoversPanics(t *testing.T) {
	fn := registry.NewFunction("boom", "Panics.", func(ctx context.Context, in struct{}) (any, error) {
		panic("kaboom")
	})
	entry := &registry.FunctionEntry{
		QualifiedName: "test.boom",
		Module:        "test",
		Name:          "boom",
		Function:      fn,
	}

	outcome := registry.Invoke(context.TODO(), entry, nil)
	require.False(t, outcome.Success)
	require.Contains(t, outcome.Error, "kaboom")
	require.Equal(t, "test.boom", outcome.Function)
}
