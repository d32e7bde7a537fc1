package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/internal/mylog"
	"github.com/samber/lo"
)

type (
	// FunctionEntry is the registered form of a Function: the qualified
	// name it is addressed by plus its indexing metadata. Entries are
	// immutable once created; re-registering a module replaces them.
	FunctionEntry struct {
		QualifiedName string          `json:"qualified_name"`
		Module        string          `json:"module"`
		Name          string          `json:"name"`
		Description   string          `json:"description"`
		Parameters    []ParameterSpec `json:"parameters"`

		Function Function `json:"-"`
	}

	SkippedEntry struct {
		QualifiedName string `json:"qualified_name"`
		Reason        string `json:"reason"`
	}

	RegisterSummary struct {
		Module     string         `json:"module"`
		Registered []string       `json:"registered"`
		Skipped    []SkippedEntry `json:"skipped,omitempty"`
	}

	Status struct {
		Count   int            `json:"function_count"`
		Names   []string       `json:"functions"`
		Skipped []SkippedEntry `json:"skipped,omitempty"`
	}

	// Indexer receives descriptions of newly registered entries. Satisfied
	// by the embedding index; kept as a local interface so the registry
	// does not depend on the index package.
	Indexer interface {
		Upsert(ctx context.Context, qualifiedName, description string) error
	}

	// ModuleResolver maps a module name to a registerable Module. The set
	// of builtin modules is supplied by the caller at construction.
	ModuleResolver func(name string) (Module, bool)

	Service interface {
		Register(ctx context.Context, module Module) (*RegisterSummary, error)
		RegisterModules(ctx context.Context, names []string) (map[string]*RegisterSummary, error)
		Status() Status
		Get(qualifiedName string) (*FunctionEntry, bool)
		Entries() []*FunctionEntry
	}

	service struct {
		logger  *mylog.Logger
		indexer Indexer
		resolve ModuleResolver

		mu      sync.RWMutex
		entries map[string]*FunctionEntry
		skipped []SkippedEntry
	}
)

var (
	_ Service = (*service)(nil)
)

func NewService(logger *mylog.Logger, indexer Indexer, resolve ModuleResolver) Service {
	return &service{
		logger:  logger,
		indexer: indexer,
		resolve: resolve,
		entries: make(map[string]*FunctionEntry),
	}
}

// Register adds every function of the module. Functions without a usable
// description are skipped with a warning instead of failing the call; they
// are reported by Status until the module is re-registered.
func (s *service) Register(ctx context.Context, module Module) (*RegisterSummary, error) {
	summary := &RegisterSummary{Module: module.Name()}

	for _, fn := range module.Functions() {
		qualifiedName := module.Name() + "." + fn.Name()

		if fn.Name() == "" {
			s.logger.Warn("skipping function without a name", "module", module.Name())
			s.addSkipped(summary, SkippedEntry{QualifiedName: qualifiedName, Reason: "missing name"})
			continue
		}
		if fn.Description() == "" {
			s.logger.Warn("skipping function without a description", "function", qualifiedName)
			s.addSkipped(summary, SkippedEntry{QualifiedName: qualifiedName, Reason: "missing description"})
			continue
		}

		entry := &FunctionEntry{
			QualifiedName: qualifiedName,
			Module:        module.Name(),
			Name:          fn.Name(),
			Description:   fn.Description(),
			Parameters:    fn.Parameters(),
			Function:      fn,
		}

		if err := s.indexer.Upsert(ctx, entry.QualifiedName, entry.Description); err != nil {
			// Functions indexed before the failure stay registered, so the
			// caller gets the partial summary alongside the error.
			return summary, errors.Wrapf(err, "failed to index %s", entry.QualifiedName)
		}

		s.mu.Lock()
		s.entries[entry.QualifiedName] = entry
		s.mu.Unlock()

		summary.Registered = append(summary.Registered, entry.QualifiedName)
		s.logger.Info("registered function", "function", entry.QualifiedName)
	}

	return summary, nil
}

// RegisterModules resolves module names against the builtin set. An unknown
// name fails that entry alone; the remaining modules still register.
func (s *service) RegisterModules(ctx context.Context, names []string) (map[string]*RegisterSummary, error) {
	summaries := make(map[string]*RegisterSummary, len(names))
	var firstErr error
	for _, name := range names {
		module, ok := s.resolve(name)
		if !ok {
			err := errors.Wrapf(errors.ErrImportFailure, "unknown module %q", name)
			if firstErr == nil {
				firstErr = err
			}
			s.logger.Warn("failed to register module", "module", name, "err", err)
			continue
		}

		summary, err := s.Register(ctx, module)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if summary != nil && len(summary.Registered) > 0 {
				summaries[name] = summary
			}
			s.logger.Warn("failed to register module", "module", name, "err", err)
			continue
		}
		summaries[name] = summary
	}

	if len(summaries) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return summaries, nil
}

func (s *service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := lo.Keys(s.entries)
	sort.Strings(names)

	return Status{
		Count:   len(names),
		Names:   names,
		Skipped: append([]SkippedEntry(nil), s.skipped...),
	}
}

func (s *service) Get(qualifiedName string) (*FunctionEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[qualifiedName]
	return entry, ok
}

func (s *service) Entries() []*FunctionEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := lo.Values(s.entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].QualifiedName < entries[j].QualifiedName
	})
	return entries
}

func (s *service) addSkipped(summary *RegisterSummary, skipped SkippedEntry) {
	summary.Skipped = append(summary.Skipped, skipped)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, prev := range s.skipped {
		if prev.QualifiedName == skipped.QualifiedName {
			s.skipped[i] = skipped
			return
		}
	}
	s.skipped = append(s.skipped, skipped)
}
