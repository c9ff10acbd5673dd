package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sgr-genai/orchestrator/config"
	"github.com/sgr-genai/orchestrator/internal/metrics"
	"github.com/sgr-genai/orchestrator/llm"
	"github.com/sgr-genai/orchestrator/llm/factory"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultMaxSteps = config.DefaultMaxSteps

// loadConcurrency bounds how many workflow files LoadDir reads in parallel.
const loadConcurrency = 8

var placeholderRe = regexp.MustCompile(`\{\{\s*([\w.\-]+)\s*\}\}`)

// AgentLookup is the read side of the Agent Registry the engine depends on.
type AgentLookup interface {
	Get(agentID string) (*config.AgentDefinition, bool)
}

// ModelFactory is the read side of the Model Factory the engine depends on.
type ModelFactory interface {
	Get(spec factory.Spec) (llm.ChatModel, error)
}

// Engine holds the hot-reloadable workflow definition cache and executes
// CHAIN/ROUTER runs against an AgentLookup and a ModelFactory.
//
// EnforceAllowedAgents controls whether a ROUTER run rejects a manager
// decision naming an agent outside allowedAgents. Default false: the
// allow-list is informational only, matching the original implementation's
// (flagged) behavior — see the router allow-list design note.
type Engine struct {
	mu        sync.RWMutex
	workflows map[string]*config.WorkflowDefinition
	pathToID  map[string]string

	agents   AgentLookup
	models   ModelFactory
	executor AgentExecutor
	loader   *config.WorkflowLoader
	metrics  *metrics.Collector

	EnforceAllowedAgents bool

	logger *zap.Logger
}

func NewEngine(agents AgentLookup, models ModelFactory, collector *metrics.Collector, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		workflows: make(map[string]*config.WorkflowDefinition),
		pathToID:  make(map[string]string),
		agents:    agents,
		models:    models,
		loader:    config.NewWorkflowLoader(),
		metrics:   collector,
		logger:    logger,
	}
	e.executor = &agentExecutor{agents: agents, models: models, metrics: collector, logger: logger}
	return e
}

// Register atomically replaces (or inserts) a workflow definition — the
// same single-pointer-swap-under-lock discipline the Agent Registry uses,
// so concurrent readers never observe a half-built definition.
func (e *Engine) Register(def *config.WorkflowDefinition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.workflows[def.ID] = def
}

// Unregister evicts a workflow immediately — this implementation's answer
// to the "what happens when a workflow YAML is deleted" open question.
func (e *Engine) Unregister(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.workflows, id)
}

// LoadDir loads every *.yaml workflow definition directly under dir. Errors
// on individual files are logged and skipped rather than aborting the walk,
// so one malformed workflow never blocks the rest from loading at startup.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read workflow dir %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(loadConcurrency)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			e.loadFile(path)
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) loadFile(path string) {
	def, err := e.loader.LoadWorkflow(path)
	if err != nil {
		e.logger.Error("failed to load workflow", zap.String("path", path), zap.Error(err))
		e.recordReload("failure")
		return
	}
	e.mu.Lock()
	e.workflows[def.ID] = def
	e.pathToID[path] = def.ID
	e.mu.Unlock()
	e.logger.Info("workflow loaded", zap.String("path", path), zap.String("id", def.ID), zap.String("type", def.Type))
	e.recordReload("success")
}

func (e *Engine) recordReload(outcome string) {
	if e.metrics != nil {
		e.metrics.RecordReload("workflow", outcome)
	}
}

// HandleFileEvent is the watcher callback for the workflow YAML tree: a
// CREATE/WRITE reloads and atomically replaces the definition, a REMOVE
// evicts it by the id it was last known to hold.
func (e *Engine) HandleFileEvent(evt config.FileEvent) {
	if filepath.Ext(evt.Path) != ".yaml" {
		return
	}
	switch evt.Op {
	case config.FileOpCreate, config.FileOpWrite:
		e.loadFile(evt.Path)
	case config.FileOpRemove:
		e.mu.Lock()
		if id, ok := e.pathToID[evt.Path]; ok {
			delete(e.workflows, id)
			delete(e.pathToID, evt.Path)
		}
		e.mu.Unlock()
		e.logger.Info("workflow evicted", zap.String("path", evt.Path))
		e.recordReload("evicted")
	}
}

func (e *Engine) Get(id string) (*config.WorkflowDefinition, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	def, ok := e.workflows[id]
	return def, ok
}

func (e *Engine) List() []*config.WorkflowDefinition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*config.WorkflowDefinition, 0, len(e.workflows))
	for _, def := range e.workflows {
		out = append(out, def)
	}
	return out
}

// Run dispatches to the CHAIN or ROUTER executor for workflowID, matching
// Type case-insensitively.
func (e *Engine) Run(ctx context.Context, workflowID, initialInput string) (string, error) {
	def, ok := e.Get(workflowID)
	if !ok {
		return "", &ExecutionError{Code: ErrWorkflowNotFound, Message: fmt.Sprintf("workflow %q not found", workflowID)}
	}

	switch strings.ToUpper(def.Type) {
	case "CHAIN":
		return e.runChain(ctx, def, initialInput)
	case "ROUTER":
		return e.runRouter(ctx, def, initialInput)
	default:
		return "", &ExecutionError{Code: ErrUnsupportedType, Message: fmt.Sprintf("unsupported workflow type %q", def.Type)}
	}
}

// runChain executes a fixed step sequence, seeding the execution context
// with USER_INPUT and recording each step's output under its own stepId so
// later steps can reference it via inputTemplate.
func (e *Engine) runChain(ctx context.Context, def *config.WorkflowDefinition, initialInput string) (string, error) {
	execCtx := config.ExecutionContext{"USER_INPUT": initialInput}
	current := initialInput

	for i, step := range def.Steps {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		input := resolveStepInput(step, execCtx, current)
		start := time.Now()
		output, err := e.executor.Execute(ctx, step.AgentID, input)
		if err != nil {
			e.recordStep(def.ID, step.AgentID, "error", time.Since(start))
			return "", fmt.Errorf("step %d (%s) failed: %w", i, step.StepID, err)
		}
		e.recordStep(def.ID, step.AgentID, "success", time.Since(start))
		execCtx[step.StepID] = output
		current = output
	}
	return current, nil
}

func (e *Engine) recordStep(workflowID, agentID, status string, duration time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordWorkflowStep(workflowID, agentID, status, duration)
	}
}

// resolveStepInput follows the same fallback chain the system this was
// ported from used: an explicit {{key}} template over the execution
// context if the step declares one, else the named inputSource value if
// present, else the prior step's raw output.
func resolveStepInput(step config.Step, execCtx config.ExecutionContext, lastOutput string) string {
	if step.InputTemplate != "" {
		return placeholderRe.ReplaceAllStringFunc(step.InputTemplate, func(match string) string {
			key := placeholderRe.FindStringSubmatch(match)[1]
			if v, ok := execCtx[key]; ok {
				return v
			}
			return match
		})
	}
	if step.InputSource != "" {
		if v, ok := execCtx[step.InputSource]; ok {
			return v
		}
	}
	return lastOutput
}

type routerDecision struct {
	NextAgent string `json:"next_agent"`
}

// runRouter loops a manager agent's routing decisions until it says FINISH
// or maxSteps is exhausted, bounding an otherwise-unbounded agent loop.
func (e *Engine) runRouter(ctx context.Context, def *config.WorkflowDefinition, initialInput string) (string, error) {
	maxSteps := def.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}

	current := initialInput
	for i := 0; i < maxSteps; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		routingPrompt := buildRoutingPrompt(current, def.AllowedAgents)
		managerStart := time.Now()
		decisionText, err := e.executor.Execute(ctx, def.ManagerAgentID, routingPrompt)
		if err != nil {
			e.recordStep(def.ID, def.ManagerAgentID, "error", time.Since(managerStart))
			return "", fmt.Errorf("router step %d failed: %w", i, err)
		}
		e.recordStep(def.ID, def.ManagerAgentID, "success", time.Since(managerStart))

		decision := parseRouterResponse(decisionText)
		if strings.EqualFold(decision.NextAgent, "FINISH") {
			return current, nil
		}

		if e.EnforceAllowedAgents && !allowedAgent(decision.NextAgent, def.AllowedAgents) {
			return "", &ExecutionError{
				Code:    ErrAgentNotFound,
				Message: fmt.Sprintf("router selected agent %q outside allowedAgents", decision.NextAgent),
			}
		}

		workerStart := time.Now()
		workerResult, err := e.executor.Execute(ctx, decision.NextAgent, current)
		if err != nil {
			e.recordStep(def.ID, decision.NextAgent, "error", time.Since(workerStart))
			return "", fmt.Errorf("router worker step %d (%s) failed: %w", i, decision.NextAgent, err)
		}
		e.recordStep(def.ID, decision.NextAgent, "success", time.Since(workerStart))
		current = workerResult
	}
	return current, nil
}

func allowedAgent(agentID string, allowed []string) bool {
	for _, a := range allowed {
		if a == agentID {
			return true
		}
	}
	return false
}

func buildRoutingPrompt(currentData string, allowedAgents []string) string {
	return fmt.Sprintf(
		"Analyze this input: %s\nDecide next step from allowed list: %s\nReturn JSON: { \"next_agent\": \"NAME\" } or \"FINISH\"",
		currentData, strings.Join(allowedAgents, ", "),
	)
}

// parseRouterResponse strips a markdown code fence if the manager agent
// wrapped its JSON in one, then parses it. Any parse failure fails safe to
// FINISH rather than looping forever on a malformed decision.
func parseRouterResponse(text string) routerDecision {
	cleaned := stripFence(text)

	var decision routerDecision
	if err := json.Unmarshal([]byte(cleaned), &decision); err != nil {
		return routerDecision{NextAgent: "FINISH"}
	}
	return decision
}

// stripFence removes a leading/trailing triple-backtick fence (with an
// optional language tag on the opening line) and trims surrounding
// whitespace. Applied to every agent response, not just the manager's
// routing decision, since a chat model will wrap plain text in a fence as
// readily as it wraps JSON.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl != -1 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// agentExecutor is the default AgentExecutor: resolve the agent definition,
// resolve its chat model from the Model Factory, and run one prompt turn.
type agentExecutor struct {
	agents  AgentLookup
	models  ModelFactory
	metrics *metrics.Collector
	logger  *zap.Logger
}

func (a *agentExecutor) Execute(ctx context.Context, agentID, userMessage string) (string, error) {
	def, ok := a.agents.Get(agentID)
	if !ok {
		return "", &ExecutionError{Code: ErrAgentNotFound, Message: fmt.Sprintf("agent %q not found", agentID)}
	}

	model, err := a.models.Get(factory.Spec{
		Provider:    def.Model.Provider,
		Model:       def.Model.Name,
		Temperature: def.Model.Temperature,
	})
	if err != nil {
		return "", classifyAgentError(err)
	}

	fullPrompt := def.SystemPrompt + "\n\nUser Input:\n" + userMessage
	start := time.Now()
	result, err := model.Chat(ctx, fullPrompt)
	if err != nil {
		a.recordLLMRequest(def.Model.Provider, def.Model.Name, "error", time.Since(start))
		return "", classifyAgentError(err)
	}
	a.recordLLMRequest(def.Model.Provider, def.Model.Name, "success", time.Since(start))
	return stripFence(result), nil
}

func (a *agentExecutor) recordLLMRequest(provider, model, status string, duration time.Duration) {
	if a.metrics != nil {
		a.metrics.RecordLLMRequest(provider, model, status, duration)
	}
}
