// Package dispatch runs the request pipeline: match a prompt against the
// registered function descriptions, resolve parameters, render the
// invocation snippet, and execute the matched function directly.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/prashantdagar001/automation-api/config"
	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/extract"
	"github.com/prashantdagar001/automation-api/index"
	"github.com/prashantdagar001/automation-api/internal/mylog"
	"github.com/prashantdagar001/automation-api/registry"
	"github.com/prashantdagar001/automation-api/session"
	"github.com/prashantdagar001/automation-api/synth"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
)

type (
	// Response is the packaged result of one execute request. On a failed
	// dispatch only Success, Error, Prompt and SessionID are meaningful.
	Response struct {
		Success         bool              `json:"success"`
		Function        string            `json:"function,omitempty"`
		FunctionName    string            `json:"function_name,omitempty"`
		RelevanceScore  float64           `json:"relevance_score"`
		Parameters      map[string]any    `json:"parameters,omitempty"`
		Code            string            `json:"code,omitempty"`
		ExecutionResult *registry.Outcome `json:"execution_result,omitempty"`
		Error           string            `json:"error,omitempty"`
		Prompt          string            `json:"prompt"`
		SessionID       string            `json:"session_id"`
	}

	Service interface {
		Execute(ctx context.Context, prompt, sessionID string) (*Response, error)
	}

	service struct {
		logger    *mylog.Logger
		config    *config.DispatchConfig
		registry  registry.Service
		index     index.Index
		sessions  session.Manager
		extractor extract.LLMExtractor
		renderer  *synth.Renderer
		tracer    trace.Tracer
	}
)

var (
	_ Service = (*service)(nil)
)

// NewService wires the pipeline. extractor may be nil, in which case
// parameter resolution relies on pattern extraction alone.
func NewService(
	logger *mylog.Logger,
	conf *config.DispatchConfig,
	reg registry.Service,
	idx index.Index,
	sessions session.Manager,
	extractor extract.LLMExtractor,
	tracer trace.Tracer,
) Service {
	return &service{
		logger:    logger,
		config:    conf,
		registry:  reg,
		index:     idx,
		sessions:  sessions,
		extractor: extractor,
		renderer:  synth.NewRenderer(),
		tracer:    tracer,
	}
}

// Execute runs the full pipeline for one prompt. A failed match or missing
// parameters come back as both a user-facing Response and a sentinel error
// so the transport layer can classify without parsing messages.
func (s *service) Execute(ctx context.Context, prompt, sessionID string) (*Response, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "prompt must not be empty")
	}

	if sessionID == "" {
		sess, err := s.sessions.CreateSession(ctx)
		if err != nil {
			return nil, err
		}
		sessionID = sess.ID
	} else if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	match, entry, err := s.match(ctx, prompt, sessionID)
	if err != nil {
		return s.failed(ctx, sessionID, prompt, "", err)
	}

	params, err := s.resolveParameters(ctx, prompt, entry)
	if err != nil {
		return s.failed(ctx, sessionID, prompt, entry.QualifiedName, err)
	}

	code, err := s.renderer.Render(entry, params)
	if err != nil {
		return nil, err
	}

	outcome := s.invoke(ctx, entry, params)

	interaction := session.Interaction{
		Prompt:       prompt,
		FunctionName: entry.QualifiedName,
		Success:      outcome.Success,
		Result:       datatypes.NewJSONType[any](outcome),
	}
	if err := s.sessions.AddInteraction(ctx, sessionID, interaction); err != nil {
		s.logger.Warn("failed to record interaction", "session_id", sessionID, "err", err)
	}

	return &Response{
		Success:         true,
		Function:        entry.QualifiedName,
		FunctionName:    entry.Name,
		RelevanceScore:  match.Score,
		Parameters:      params,
		Code:            code,
		ExecutionResult: outcome,
		Prompt:          prompt,
		SessionID:       sessionID,
	}, nil
}

// match queries the index with the history-enhanced prompt and returns the
// best candidate at or above the configured threshold.
func (s *service) match(ctx context.Context, prompt, sessionID string) (*index.Match, *registry.FunctionEntry, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.match")
	defer span.End()

	enhanced := s.enhancePrompt(ctx, prompt, sessionID)

	matches, err := s.index.Query(ctx, enhanced, s.config.TopK)
	if err != nil {
		return nil, nil, err
	}

	for _, match := range matches {
		if match.Score < s.config.MatchThreshold {
			break
		}
		entry, ok := s.registry.Get(match.QualifiedName)
		if !ok {
			s.logger.Warn("index returned unregistered function", "function", match.QualifiedName)
			continue
		}

		span.SetAttributes(
			attribute.String("function", match.QualifiedName),
			attribute.Float64("score", match.Score),
		)
		s.logger.Info("matched function",
			"function", match.QualifiedName, "score", match.Score)
		return &match, entry, nil
	}

	return nil, nil, errors.Wrapf(errors.ErrNoMatch, "no matching function found for your request")
}

// enhancePrompt prefixes the similarity query with the last few successful
// interactions of the session. The original prompt is still what gets
// recorded and shown to parameter extraction.
func (s *service) enhancePrompt(ctx context.Context, prompt, sessionID string) string {
	recent, err := s.sessions.RecentSuccesses(ctx, sessionID, 3)
	if err != nil {
		s.logger.Warn("failed to load session context", "session_id", sessionID, "err", err)
		return prompt
	}
	if len(recent) == 0 {
		return prompt
	}

	var sb strings.Builder
	sb.WriteString("With this context from your previous interactions:\n")
	for _, item := range recent {
		summary := ""
		if outcome, ok := item.Result.Data().(map[string]any); ok {
			summary = fmt.Sprintf("%v", outcome["result"])
		}
		summary = truncateRunes(summary, 100)
		fmt.Fprintf(&sb, "- You previously asked: '%s', which executed '%s' with result: '%s'\n",
			item.Prompt, item.FunctionName, summary)
	}
	sb.WriteString("\nCurrent request: ")
	sb.WriteString(prompt)
	return sb.String()
}

// truncateRunes shortens s to at most n runes so multibyte characters are
// never split mid-sequence.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// resolveParameters runs pattern extraction first, fills still-missing
// parameters from the LLM extractor when one is configured, and verifies
// every required parameter without a default is present.
func (s *service) resolveParameters(ctx context.Context, prompt string, entry *registry.FunctionEntry) (map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.extract")
	defer span.End()

	params := extract.FromPrompt(prompt, entry.Parameters)

	if s.extractor != nil && len(params) < len(entry.Parameters) {
		var unresolved []registry.ParameterSpec
		for _, spec := range entry.Parameters {
			if _, ok := params[spec.Name]; !ok {
				unresolved = append(unresolved, spec)
			}
		}

		extracted, err := s.extractor.Extract(ctx, prompt, unresolved)
		if err != nil {
			// Degrade to the pattern results rather than failing the request.
			s.logger.Warn("llm extraction failed", "function", entry.QualifiedName, "err", err)
		}
		for name, value := range extracted {
			params[name] = value
		}
	}

	var missing []string
	for _, spec := range entry.Parameters {
		if _, ok := params[spec.Name]; ok {
			continue
		}
		if spec.Required && spec.Default == nil {
			missing = append(missing, spec.Name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(errors.ErrMissingParameter,
			"missing required parameters: %s", strings.Join(missing, ", "))
	}

	span.SetAttributes(attribute.Int("parameters", len(params)))
	return params, nil
}

// invoke executes the function detached from request cancellation so a
// dropped client cannot abort a side effect mid-flight.
func (s *service) invoke(ctx context.Context, entry *registry.FunctionEntry, params map[string]any) *registry.Outcome {
	ctx, span := s.tracer.Start(context.WithoutCancel(ctx), "dispatch.execute")
	defer span.End()

	outcome := registry.Invoke(ctx, entry, params)

	span.SetAttributes(
		attribute.String("function", entry.QualifiedName),
		attribute.Bool("success", outcome.Success),
	)
	if !outcome.Success {
		s.logger.Warn("function execution failed",
			"function", entry.QualifiedName, "err", outcome.Error)
	}
	return outcome
}

// failed records the failed dispatch in the session and returns a
// user-facing response alongside the classifying error.
func (s *service) failed(ctx context.Context, sessionID, prompt, functionName string, cause error) (*Response, error) {
	resp := &Response{
		Success:   false,
		Function:  functionName,
		Error:     cause.Error(),
		Prompt:    prompt,
		SessionID: sessionID,
	}

	interaction := session.Interaction{
		Prompt:       prompt,
		FunctionName: functionName,
		Success:      false,
		Result:       datatypes.NewJSONType[any](map[string]any{"error": cause.Error()}),
	}
	if err := s.sessions.AddInteraction(ctx, sessionID, interaction); err != nil {
		s.logger.Warn("failed to record interaction", "session_id", sessionID, "err", err)
	}

	return resp, cause
}
