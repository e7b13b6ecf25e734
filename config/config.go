// Package config loads the expert roster and tool catalog from a YAML
// configuration directory and constructs the runtime tool set. The directory
// layout mirrors the persisted configuration the evolution store manages:
// experts.yaml holds the roster, tools.yaml the tool catalog.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/logging"
	"github.com/seacor-ai/seacor/model"
	"github.com/seacor-ai/seacor/tool"
)

const (
	expertsFile = "experts.yaml"
	toolsFile   = "tools.yaml"
)

// ToolConfig describes one entry of the tool catalog. Type selects the
// implementation; Config carries implementation-specific settings.
type ToolConfig struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Type        string         `yaml:"type"`
	Config      map[string]any `yaml:"config"`
}

type expertsDocument struct {
	Experts []core.ExpertDefinition `yaml:"experts"`
}

type toolsDocument struct {
	Tools map[string]ToolConfig `yaml:"tools"`
}

// Loader reads and validates the configuration directory once at
// construction. Missing files yield an empty roster or catalog rather than
// an error; a present but invalid file is an error.
type Loader struct {
	dir         string
	logger      logging.Logger
	experts     []core.ExpertDefinition
	toolConfigs map[string]ToolConfig
}

// NewLoader reads experts.yaml and tools.yaml from dir. Every expert
// definition is validated; the first invalid one fails the load.
func NewLoader(dir string, logger logging.Logger) (*Loader, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	l := &Loader{dir: dir, logger: logger, toolConfigs: map[string]ToolConfig{}}

	if err := l.loadExperts(); err != nil {
		return nil, err
	}
	if err := l.loadTools(); err != nil {
		return nil, err
	}

	logger.Info("configuration loaded", "dir", dir, "experts", len(l.experts), "tools", len(l.toolConfigs))
	return l, nil
}

func (l *Loader) loadExperts() error {
	data, err := os.ReadFile(filepath.Join(l.dir, expertsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", expertsFile, err)
	}

	var doc expertsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", expertsFile, err)
	}

	for _, def := range doc.Experts {
		if err := def.Validate(); err != nil {
			return fmt.Errorf("invalid expert %q in %s: %w", def.Name, expertsFile, err)
		}
	}

	l.experts = doc.Experts
	return nil
}

func (l *Loader) loadTools() error {
	data, err := os.ReadFile(filepath.Join(l.dir, toolsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", toolsFile, err)
	}

	var doc toolsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", toolsFile, err)
	}

	if doc.Tools != nil {
		l.toolConfigs = doc.Tools
	}
	return nil
}

// ExpertDefinitions returns a copy of the loaded roster.
func (l *Loader) ExpertDefinitions() []core.ExpertDefinition {
	out := make([]core.ExpertDefinition, len(l.experts))
	copy(out, l.experts)
	return out
}

// ToolConfigs returns a copy of the loaded tool catalog.
func (l *Loader) ToolConfigs() map[string]ToolConfig {
	out := make(map[string]ToolConfig, len(l.toolConfigs))
	for k, v := range l.toolConfigs {
		out[k] = v
	}
	return out
}

// BuildTools constructs the runtime tools declared in the catalog, all
// backed by the given provider. Entries with an unknown type are skipped
// with a warning.
func (l *Loader) BuildTools(provider model.Provider) map[string]tool.Tool {
	tools := make(map[string]tool.Tool, len(l.toolConfigs))
	for name, cfg := range l.toolConfigs {
		switch cfg.Type {
		case "WebSearchTool":
			tools[name] = tool.NewWebSearchTool(provider)
		case "CodeAnalysisTool":
			tools[name] = tool.NewCodeAnalysisTool(provider)
		default:
			l.logger.Warn("unknown tool type, skipping", "tool", name, "type", cfg.Type)
			continue
		}
		l.logger.Debug("tool constructed", "tool", name, "type", cfg.Type)
	}
	return tools
}

// ToolsFor resolves an expert's declared tool names against the built tool
// map, preserving declaration order. Unknown names are skipped with a
// warning.
func (l *Loader) ToolsFor(def core.ExpertDefinition, built map[string]tool.Tool) []tool.Tool {
	out := make([]tool.Tool, 0, len(def.Tools))
	for _, name := range def.Tools {
		t, ok := built[name]
		if !ok {
			l.logger.Warn("expert references unknown tool", "expert", def.Name, "tool", name)
			continue
		}
		out = append(out, t)
	}
	return out
}
