package evolution

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seacor-ai/seacor/logging"
)

const (
	backupTimeFormat = "20060102_150405"
	agentsFile       = "agents.yaml"
	crewsDir         = "crews"
)

// requiredAgentFields are autofilled with "" when a proposed agent omits
// them, so the persisted roster always has a uniform shape.
var requiredAgentFields = []string{"name", "role", "goal", "backstory"}

// Store applies roster proposals to the configuration directory. Every Apply
// snapshots the directory first, so a bad proposal is always one Rollback
// away. The agent roster lives in agents.yaml as a map keyed by agent id;
// crew definitions live as individual files under crews/.
type Store struct {
	configDir  string
	backupRoot string
	logger     logging.Logger
}

// NewStore constructs a Store over configDir. Backups go to backupRoot; when
// empty, a "backups" directory next to configDir is used.
func NewStore(configDir, backupRoot string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if backupRoot == "" {
		backupRoot = filepath.Join(filepath.Dir(configDir), "backups")
	}
	return &Store{configDir: configDir, backupRoot: backupRoot, logger: logger}
}

// Snapshot copies the configuration directory into a timestamped backup
// directory and returns its path.
func (s *Store) Snapshot() (string, error) {
	timestamp := time.Now().Format(backupTimeFormat)
	backupDir := filepath.Join(s.backupRoot, timestamp)

	if err := copyDir(s.configDir, backupDir); err != nil {
		return "", fmt.Errorf("snapshot config: %w", err)
	}

	s.logger.Info("configuration backed up", "backup", backupDir)
	return backupDir, nil
}

// Apply persists a proposal: snapshot first, then add, remove and merge
// agents in agents.yaml and update existing crew files. Returns the backup
// directory taken before any change.
func (s *Store) Apply(p Proposal) (string, error) {
	backupDir, err := s.Snapshot()
	if err != nil {
		return "", err
	}

	agents, err := s.loadAgents()
	if err != nil {
		return backupDir, err
	}

	for _, draft := range p.NewAgents {
		for _, field := range requiredAgentFields {
			if _, ok := draft[field]; !ok {
				draft[field] = ""
			}
		}
		key := draftKey(draft)
		if key == "" {
			s.logger.Warn("agent draft has neither id nor name, skipping", "draft", draft)
			continue
		}
		agents[key] = draft
		s.logger.Info("agent added", "agent", key)
	}

	for _, key := range p.RemoveAgents {
		if _, ok := agents[key]; ok {
			delete(agents, key)
			s.logger.Info("agent removed", "agent", key)
		}
	}

	for _, merge := range p.MergeAgents {
		if len(merge.From) == 0 || merge.To == "" || merge.Definition == nil {
			s.logger.Warn("incomplete merge definition, skipping", "merge", merge)
			continue
		}
		for _, key := range merge.From {
			delete(agents, key)
		}
		agents[merge.To] = merge.Definition
		s.logger.Info("agents merged", "into", merge.To, "from", merge.From)
	}

	if err := s.saveAgents(agents); err != nil {
		return backupDir, err
	}

	// Crew files are update-only: a proposal can modify an existing crew but
	// never create or delete one.
	for _, crew := range p.UpdateCrews {
		name, _ := crew["name"].(string)
		if name == "" {
			s.logger.Warn("crew update has no name, skipping", "crew", crew)
			continue
		}
		path := filepath.Join(s.configDir, crewsDir, name+".yaml")
		if _, err := os.Stat(path); err != nil {
			s.logger.Warn("crew file does not exist, skipping update", "crew", name)
			continue
		}
		if err := writeYAML(path, crew); err != nil {
			return backupDir, fmt.Errorf("update crew %q: %w", name, err)
		}
		s.logger.Info("crew updated", "crew", name)
	}

	return backupDir, nil
}

// Rollback restores the configuration directory from a backup taken by
// Snapshot or Apply.
func (s *Store) Rollback(backupDir string) error {
	info, err := os.Stat(backupDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("backup directory does not exist: %s", backupDir)
	}

	if err := os.RemoveAll(s.configDir); err != nil {
		return fmt.Errorf("clear config dir: %w", err)
	}
	if err := copyDir(backupDir, s.configDir); err != nil {
		return fmt.Errorf("restore config: %w", err)
	}

	s.logger.Info("configuration rolled back", "backup", backupDir)
	return nil
}

// ListBackups returns the available backup directory names, oldest first.
func (s *Store) ListBackups() ([]string, error) {
	entries, err := os.ReadDir(s.backupRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read backup root: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *Store) agentsPath() string {
	return filepath.Join(s.configDir, agentsFile)
}

func (s *Store) loadAgents() (map[string]AgentDraft, error) {
	data, err := os.ReadFile(s.agentsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]AgentDraft{}, nil
		}
		return nil, fmt.Errorf("read agents file: %w", err)
	}

	agents := map[string]AgentDraft{}
	if err := yaml.Unmarshal(data, &agents); err != nil {
		return nil, fmt.Errorf("parse agents file: %w", err)
	}
	if agents == nil {
		agents = map[string]AgentDraft{}
	}
	return agents, nil
}

func (s *Store) saveAgents(agents map[string]AgentDraft) error {
	if err := writeYAML(s.agentsPath(), agents); err != nil {
		return fmt.Errorf("save agents file: %w", err)
	}
	return nil
}

// draftKey selects the roster key for a draft: explicit id first, name
// second.
func draftKey(draft AgentDraft) string {
	if id, ok := draft["id"].(string); ok && id != "" {
		return id
	}
	if name, ok := draft["name"].(string); ok && name != "" {
		return name
	}
	return ""
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// copyDir recursively copies src into dst, creating dst as needed.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
