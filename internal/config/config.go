// Package config builds and parses config.yml, the reproducibility
// configuration derived from a finalized trace. It lists the traced runs
// and the files they touched; downstream tooling decides how to package
// them. No package-ownership lookup happens here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/retracehq/retrace/internal/store"
	"github.com/retracehq/retrace/internal/syscalls"
)

// FileName is the configuration filename inside a trace directory.
const FileName = "config.yml"

// Version identifies the configuration format.
const Version = "1.0"

// Config is the on-disk configuration document.
type Config struct {
	Version string `yaml:"version"`
	Runs    []Run  `yaml:"runs"`
	// OtherFiles are the files the trace observed that still exist on disk.
	OtherFiles []string `yaml:"other_files"`
	// MissingFiles were observed but no longer exist (transient paths).
	MissingFiles []string `yaml:"missing_files,omitempty"`
}

// Run describes one traced root command.
type Run struct {
	Binary     string   `yaml:"binary"`
	Argv       []string `yaml:"argv"`
	WorkingDir string   `yaml:"workingdir,omitempty"`
	ExitCode   int      `yaml:"exitcode"`
	// Signal is set instead of ExitCode when the run died from a signal.
	Signal int `yaml:"signal,omitempty"`
}

// Path returns the configuration location for a trace directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Build derives a configuration from a finalized trace.
func Build(r *store.Reader) (*Config, error) {
	procs, err := r.Processes()
	if err != nil {
		return nil, err
	}
	execs, err := r.ExecutedFiles()
	if err != nil {
		return nil, err
	}
	opens, err := r.OpenedFiles()
	if err != nil {
		return nil, err
	}

	cfg := &Config{Version: Version}
	for _, p := range procs {
		if p.Parent != nil {
			continue
		}
		run := Run{}
		for _, e := range execs {
			if e.Process == p.ID {
				run.Binary = e.Name
				run.Argv = e.Argv
				break
			}
		}
		for _, o := range opens {
			if o.Process == p.ID && o.Mode&int(syscalls.ModeWorkingDir) != 0 {
				run.WorkingDir = o.Name
				break
			}
		}
		if p.ExitCode != nil {
			value, signaled := store.DecodeExit(*p.ExitCode)
			if signaled {
				run.Signal = value
			} else {
				run.ExitCode = value
			}
		}
		cfg.Runs = append(cfg.Runs, run)
	}

	seen := make(map[string]bool)
	for _, o := range opens {
		if seen[o.Name] {
			continue
		}
		seen[o.Name] = true
		if _, err := os.Lstat(o.Name); err == nil {
			cfg.OtherFiles = append(cfg.OtherFiles, o.Name)
		} else {
			cfg.MissingFiles = append(cfg.MissingFiles, o.Name)
		}
	}
	sort.Strings(cfg.OtherFiles)
	sort.Strings(cfg.MissingFiles)

	return cfg, nil
}

// Write saves the configuration. Unless overwrite is set, an existing file
// is left alone and an error returned, so a hand-edited configuration is
// never silently clobbered.
func Write(path string, cfg *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Lstat(path); err == nil {
			return fmt.Errorf("%s already exists (use reset to regenerate)", path)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}
	return nil
}

// Load parses an existing configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}
