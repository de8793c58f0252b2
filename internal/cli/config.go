package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/quickkv/pkg/quickdb"
	"github.com/calvinalkan/quickkv/pkg/quickdb/jsonfile"
)

// Drivers accepted by the driver setting.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

var drivers = []string{DriverJSON, DriverSQLite, DriverMemory}

// ConfigFileName is the project config file looked up in the working directory.
const ConfigFileName = ".qkv.json"

// Config is the resolved configuration of one invocation.
type Config struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	Table       string `json:"table"`
	Indent      string `json:"indent"`
	Lock        bool   `json:"lock"`
	NormalKeys  bool   `json:"normal_keys"`
	StrictPaths bool   `json:"strict_paths"`

	// Computed, not read from files.
	EffectiveCwd string        `json:"-"`
	PathAbs      string        `json:"-"`
	Sources      ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string
	Project string
}

// ConfigLayer is one layer of configuration: a config file or the global
// flags. Nil fields leave the lower layer alone.
type ConfigLayer struct {
	Driver      *string `json:"driver"`
	Path        *string `json:"path"`
	Table       *string `json:"table"`
	Indent      *string `json:"indent"`
	Lock        *bool   `json:"lock"`
	NormalKeys  *bool   `json:"normal_keys"`
	StrictPaths *bool   `json:"strict_paths"`
}

// DefaultConfig returns the configuration used when nothing else is set.
// Path stays empty and is derived from the driver in [LoadConfig].
func DefaultConfig() Config {
	return Config{
		Driver: DriverJSON,
		Table:  quickdb.DefaultTable,
		Indent: jsonfile.DefaultIndent,
	}
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	Overrides       ConfigLayer       // values of global flags that were set
	Env             map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/qkv/config.json or ~/.config/qkv/config.json)
// 3. Project config (.qkv.json in the working directory) or the -c file
// 4. Global flags.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	if globalPath := globalConfigPath(input.Env); globalPath != "" {
		fc, loaded, err := loadConfigFile(globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg = mergeConfig(cfg, fc)
			cfg.Sources.Global = globalPath
		}
	}

	projectPath := filepath.Join(workDir, ConfigFileName)
	mustExist := false

	if input.ConfigPath != "" {
		projectPath = input.ConfigPath
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}

		mustExist = true
	}

	fc, loaded, err := loadConfigFile(projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg = mergeConfig(cfg, fc)
		cfg.Sources.Project = projectPath
	}

	cfg = mergeConfig(cfg, input.Overrides)

	err = validateConfig(cfg)
	if err != nil {
		return Config{}, err
	}

	if cfg.Path == "" {
		cfg.Path = defaultPath(cfg.Driver)
	}

	cfg.EffectiveCwd = workDir

	switch {
	case cfg.Driver == DriverMemory:
		cfg.PathAbs = ""
	case filepath.IsAbs(cfg.Path):
		cfg.PathAbs = cfg.Path
	default:
		cfg.PathAbs = filepath.Join(workDir, cfg.Path)
	}

	return cfg, nil
}

// globalConfigPath returns $XDG_CONFIG_HOME/qkv/config.json, falling back to
// ~/.config/qkv/config.json. Empty if neither variable is set.
func globalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "qkv", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "qkv", "config.json")
	}

	return ""
}

func defaultPath(driver string) string {
	if driver == DriverSQLite {
		return "qkv.sqlite"
	}

	return "qkv.json"
}

// loadConfigFile reads one JSONC config file. A missing optional file is
// not an error and reports loaded=false.
func loadConfigFile(path string, mustExist bool) (ConfigLayer, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if mustExist {
				return ConfigLayer{}, false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
			}

			return ConfigLayer{}, false, nil
		}

		return ConfigLayer{}, false, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}

	fc, err := parseConfig(data)
	if err != nil {
		return ConfigLayer{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return fc, true, nil
}

func parseConfig(data []byte) (ConfigLayer, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return ConfigLayer{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var fc ConfigLayer

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	err = dec.Decode(&fc)
	if err != nil {
		return ConfigLayer{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return fc, nil
}

func mergeConfig(base Config, overlay ConfigLayer) Config {
	if overlay.Driver != nil {
		base.Driver = *overlay.Driver
	}

	if overlay.Path != nil {
		base.Path = *overlay.Path
	}

	if overlay.Table != nil {
		base.Table = *overlay.Table
	}

	if overlay.Indent != nil {
		base.Indent = *overlay.Indent
	}

	if overlay.Lock != nil {
		base.Lock = *overlay.Lock
	}

	if overlay.NormalKeys != nil {
		base.NormalKeys = *overlay.NormalKeys
	}

	if overlay.StrictPaths != nil {
		base.StrictPaths = *overlay.StrictPaths
	}

	return base
}

func validateConfig(cfg Config) error {
	if !slices.Contains(drivers, cfg.Driver) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownDriver, cfg.Driver, strings.Join(drivers, ", "))
	}

	if cfg.Table == "" {
		return ErrTableEmpty
	}

	return nil
}

// FormatConfig renders cfg as key=value lines.
func FormatConfig(cfg Config) []string {
	lines := []string{
		"effective_cwd=" + cfg.EffectiveCwd,
		"driver=" + cfg.Driver,
	}

	if cfg.Driver != DriverMemory {
		lines = append(lines, "path="+cfg.PathAbs)
	}

	lines = append(lines,
		"table="+cfg.Table,
		"indent="+strconv.Quote(cfg.Indent),
		"lock="+strconv.FormatBool(cfg.Lock),
		"normal_keys="+strconv.FormatBool(cfg.NormalKeys),
		"strict_paths="+strconv.FormatBool(cfg.StrictPaths),
	)

	return lines
}
