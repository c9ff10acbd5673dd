// Package registry holds the live, hot-reloadable agent definition cache
// the rest of the system reads from: the Workflow Engine resolves agentId
// references against it, and the file watcher drives it.
package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sgr-genai/orchestrator/config"
	"github.com/sgr-genai/orchestrator/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// loadConcurrency bounds how many agent files LoadAll reads in parallel at
// startup, so a directory with thousands of agents doesn't open them all at
// once.
const loadConcurrency = 8

// maxOwnerSearchDepth bounds how far reloadOwnerOf climbs looking for a
// sibling yaml file when a prompt markdown file changes on disk.
const maxOwnerSearchDepth = 4

// AgentRegistry is the concurrency-safe, path-aware agent definition cache.
// pathToID exists purely to answer "which agent did this now-deleted file
// belong to" on a REMOVE event, since the file's content is gone by then.
type AgentRegistry struct {
	mu       sync.RWMutex
	byID     map[string]*config.AgentDefinition
	pathToID map[string]string

	rootDir string
	loader  *config.AgentLoader
	metrics *metrics.Collector
	logger  *zap.Logger
}

func NewAgentRegistry(rootDir string, collector *metrics.Collector, logger *zap.Logger) *AgentRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentRegistry{
		byID:     make(map[string]*config.AgentDefinition),
		pathToID: make(map[string]string),
		rootDir:  rootDir,
		loader:   config.NewAgentLoader(),
		metrics:  collector,
		logger:   logger,
	}
}

// Get returns the agent definition for id, and whether it was found.
func (r *AgentRegistry) Get(id string) (*config.AgentDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byID[id]
	return def, ok
}

func (r *AgentRegistry) GetAll() []*config.AgentDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*config.AgentDefinition, 0, len(r.byID))
	for _, def := range r.byID {
		out = append(out, def)
	}
	return out
}

// LoadAll walks the agent tree at startup, loading every *.yaml file it
// finds with bounded parallelism. Per-file failures are logged and
// skipped, matching the watcher's reload behavior: one bad agent file
// never blocks the rest of the fleet.
func (r *AgentRegistry) LoadAll() error {
	var paths []string
	err := filepath.WalkDir(r.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(loadConcurrency)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			r.reloadAgentFile(path)
			return nil
		})
	}
	return g.Wait()
}

// HandleFileEvent is the watcher callback wired to the agents subtree. A
// yaml CREATE/WRITE reloads and atomically replaces that one definition. A
// yaml REMOVE evicts it. A markdown CREATE/WRITE/REMOVE reloads the owning
// agent's yaml, since prompt content lives inside the hydrated definition.
func (r *AgentRegistry) HandleFileEvent(evt config.FileEvent) {
	switch filepath.Ext(evt.Path) {
	case ".yaml":
		switch evt.Op {
		case config.FileOpCreate, config.FileOpWrite:
			r.reloadAgentFile(evt.Path)
		case config.FileOpRemove:
			r.evictByPath(evt.Path)
		}
	case ".md":
		r.reloadOwnerOf(evt.Path)
	}
}

func (r *AgentRegistry) reloadAgentFile(path string) {
	def, err := r.loader.LoadAgent(path)
	if err != nil {
		r.logger.Error("failed to load agent", zap.String("path", path), zap.Error(err))
		r.recordReload("failure")
		return
	}
	r.mu.Lock()
	r.byID[def.ID] = def
	r.pathToID[path] = def.ID
	r.mu.Unlock()
	r.logger.Info("agent loaded", zap.String("path", path), zap.String("id", def.ID))
	r.recordReload("success")
}

func (r *AgentRegistry) evictByPath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.pathToID[path]
	if !ok {
		return
	}
	delete(r.byID, id)
	delete(r.pathToID, path)
	r.logger.Info("agent evicted", zap.String("path", path), zap.String("id", id))
	r.recordReload("evicted")
}

func (r *AgentRegistry) recordReload(outcome string) {
	if r.metrics != nil {
		r.metrics.RecordReload("agent", outcome)
	}
}

// reloadOwnerOf climbs from a changed markdown file's directory toward
// rootDir until it finds a directory holding at least one yaml file, then
// reloads every yaml file there. Prompt files sit a level or two below
// their owning agent.yaml, so a direct sibling lookup would miss most
// layouts.
func (r *AgentRegistry) reloadOwnerOf(mdPath string) {
	dir := filepath.Dir(mdPath)
	for depth := 0; depth < maxOwnerSearchDepth; depth++ {
		yamls := yamlFilesIn(dir)
		if len(yamls) > 0 {
			for _, y := range yamls {
				r.reloadAgentFile(y)
			}
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir || !strings.HasPrefix(dir, r.rootDir) {
			break
		}
		dir = parent
	}
	r.logger.Warn("no owning agent yaml found for prompt file", zap.String("path", mdPath))
}

func yamlFilesIn(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".yaml" {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}
