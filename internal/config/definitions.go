package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/smazurov/ledd/internal/alias"
	"github.com/smazurov/ledd/internal/led"
	"github.com/smazurov/ledd/internal/pattern"
	"github.com/smazurov/ledd/internal/priority"
	"gopkg.in/yaml.v3"
)

// Default definition directories.
const (
	DefaultPatternsDir = "/etc/config/led_patterns"
	DefaultAliasesDir  = "/etc/config/led_aliases"
)

// definitionExts are the file types read from a definitions directory. JSON
// is read with the YAML decoder.
var definitionExts = []string{".json", ".yaml", ".yml"}

type patternFile struct {
	Patterns []patternDef `yaml:"patterns"`
}

type patternDef struct {
	Name      string    `yaml:"name"`
	Repeat    bool      `yaml:"repeat"`
	PlayCount *int      `yaml:"play_count"`
	Steps     []stepDef `yaml:"pattern"`
	Start     *stepDef  `yaml:"start_state"`
	End       *stepDef  `yaml:"end_state"`
}

type stepDef struct {
	TimeMS int      `yaml:"time_ms"`
	LEDs   []ledDef `yaml:"leds"`
}

type ledDef struct {
	Name     string  `yaml:"name"`
	State    string  `yaml:"state"`
	Priority *string `yaml:"priority"`
}

type aliasFile struct {
	Aliases []alias.Definition `yaml:"aliases"`
}

// Definitions is everything loaded from the definition directories.
type Definitions struct {
	Patterns []pattern.Pattern
	Aliases  []alias.Definition
}

// DefinitionDirs names the directories definitions are read from.
type DefinitionDirs struct {
	Patterns string
	Aliases  string
}

// LoadDefinitions reads patterns and aliases from dirs.
func LoadDefinitions(dirs DefinitionDirs, logger *slog.Logger) (Definitions, error) {
	patterns, err := LoadPatterns(dirs.Patterns, logger)
	if err != nil {
		return Definitions{}, err
	}
	aliases, err := LoadAliases(dirs.Aliases, logger)
	if err != nil {
		return Definitions{}, err
	}
	return Definitions{Patterns: patterns, Aliases: aliases}, nil
}

// LoadPatterns reads every pattern file in dir, in file name order. Files
// that don't parse are logged and skipped, as are definitions that are
// invalid or reuse an earlier name. A missing directory has no patterns.
func LoadPatterns(dir string, logger *slog.Logger) ([]pattern.Pattern, error) {
	files, err := definitionFiles(dir)
	if err != nil {
		return nil, err
	}

	var patterns []pattern.Pattern
	seen := make(map[string]bool)
	for _, path := range files {
		var file patternFile
		if err := decodeFile(path, &file); err != nil {
			logger.Warn("Skipping pattern file", "file", path, "error", err)
			continue
		}
		for _, def := range file.Patterns {
			p, err := def.toPattern()
			if err != nil {
				logger.Warn("Skipping invalid pattern", "file", path, "pattern", def.Name, "error", err)
				continue
			}
			key := strings.ToLower(p.Name)
			if seen[key] {
				logger.Warn("Ignoring duplicate pattern", "file", path, "pattern", p.Name)
				continue
			}
			seen[key] = true
			logger.Debug("Loaded pattern", "pattern", p.Name, "steps", len(p.Steps))
			patterns = append(patterns, p)
		}
	}
	return patterns, nil
}

// LoadAliases reads every alias file in dir with the same rules as
// LoadPatterns.
func LoadAliases(dir string, logger *slog.Logger) ([]alias.Definition, error) {
	files, err := definitionFiles(dir)
	if err != nil {
		return nil, err
	}

	var defs []alias.Definition
	seen := make(map[string]bool)
	for _, path := range files {
		var file aliasFile
		if err := decodeFile(path, &file); err != nil {
			logger.Warn("Skipping alias file", "file", path, "error", err)
			continue
		}
		for _, def := range file.Aliases {
			if def.Name == "" {
				logger.Warn("Skipping alias with no name", "file", path)
				continue
			}
			if alias.IsAll(def.Name) {
				logger.Warn("Skipping alias shadowing ALL", "file", path)
				continue
			}
			key := strings.ToLower(def.Name)
			if seen[key] {
				logger.Warn("Ignoring duplicate alias", "file", path, "alias", def.Name)
				continue
			}
			seen[key] = true
			defs = append(defs, def)
		}
	}
	return defs, nil
}

func definitionFiles(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isDefinitionFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func isDefinitionFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range definitionExts {
		if ext == e {
			return true
		}
	}
	return false
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

func (d patternDef) toPattern() (pattern.Pattern, error) {
	if d.Name == "" {
		return pattern.Pattern{}, errors.New("pattern has no name")
	}

	p := pattern.Pattern{Name: d.Name, Repeat: d.Repeat}
	switch {
	case d.PlayCount != nil:
		if *d.PlayCount < 0 {
			return pattern.Pattern{}, fmt.Errorf("negative play_count %d", *d.PlayCount)
		}
		p.PlayCount = *d.PlayCount
	case !d.Repeat:
		p.PlayCount = 1
	}

	for i, sd := range d.Steps {
		step, err := sd.toStep()
		if err != nil {
			return pattern.Pattern{}, fmt.Errorf("step %d: %w", i, err)
		}
		p.Steps = append(p.Steps, step)
	}

	var err error
	if p.Start, err = optionalStep(d.Start); err != nil {
		return pattern.Pattern{}, fmt.Errorf("start_state: %w", err)
	}
	if p.End, err = optionalStep(d.End); err != nil {
		return pattern.Pattern{}, fmt.Errorf("end_state: %w", err)
	}
	return p, nil
}

func optionalStep(sd *stepDef) (*pattern.Step, error) {
	if sd == nil {
		return nil, nil
	}
	step, err := sd.toStep()
	if err != nil {
		return nil, err
	}
	return &step, nil
}

func (sd stepDef) toStep() (pattern.Step, error) {
	if sd.TimeMS < 0 {
		return pattern.Step{}, fmt.Errorf("negative time_ms %d", sd.TimeMS)
	}
	step := pattern.Step{Delay: time.Duration(sd.TimeMS) * time.Millisecond}
	for _, ld := range sd.LEDs {
		entry := pattern.LEDState{Name: ld.Name, State: led.ParseState(ld.State)}
		if ld.Priority != nil {
			level, err := priority.Parse(*ld.Priority)
			if err != nil {
				return pattern.Step{}, fmt.Errorf("led %q: %w %q", ld.Name, err, *ld.Priority)
			}
			entry.Priority = level
			entry.HasPriority = true
		}
		step.LEDs = append(step.LEDs, entry)
	}
	return step, nil
}
