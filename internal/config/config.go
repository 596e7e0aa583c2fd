package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/logging"
)

// ProjectType represents the build layout detected for a project.
type ProjectType string

const (
	ProjectTypeMaven   ProjectType = "maven"
	ProjectTypeGradle  ProjectType = "gradle"
	ProjectTypeUnknown ProjectType = "unknown"
)

// Scanner names accepted in the scanners list.
const (
	ScannerSubTypes     = "subtypes"
	ScannerTypeTags     = "type_tags"
	ScannerMethodTags   = "method_tags"
	ScannerFieldTags    = "field_tags"
	ScannerMethodParams = "method_params"
	ScannerTypeKinds    = "type_kinds"
	ScannerResources    = "resources"
)

// KnownScanners lists every scanner name in default order.
var KnownScanners = []string{
	ScannerSubTypes,
	ScannerTypeTags,
	ScannerMethodTags,
	ScannerFieldTags,
	ScannerMethodParams,
	ScannerTypeKinds,
	ScannerResources,
}

// Config represents the complete typemap configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Roots    []string       `yaml:"roots" json:"roots"`
	Filter   FilterConfig   `yaml:"filter" json:"filter"`
	Scanners []string       `yaml:"scanners" json:"scanners"`
	SubTypes SubTypesConfig `yaml:"subtypes" json:"subtypes"`
	Scan     ScanConfig     `yaml:"scan" json:"scan"`
	Expand   ExpandConfig   `yaml:"expand" json:"expand"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`

	// rawBools records booleans explicitly present in a parsed file,
	// keyed by dotted path.
	rawBools map[string]bool
}

// explicitBools captures booleans whose default is true.
type explicitBools struct {
	SubTypes struct {
		ExcludeObject *bool `yaml:"exclude_object"`
	} `yaml:"subtypes"`
	Scan struct {
		RespectGitignore *bool `yaml:"respect_gitignore"`
	} `yaml:"scan"`
}

// FilterConfig configures which entries are handed to scanners.
type FilterConfig struct {
	// Include and Exclude are regular expressions, applied in order
	// (includes first) with first-exclusion semantics.
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
	// Packages is a comma separated "+pkg,-pkg" prefix list.
	Packages string `yaml:"packages" json:"packages"`
	// Paths are gitignore-style globs; entries matching any are skipped.
	Paths []string `yaml:"paths" json:"paths"`
}

// SubTypesConfig configures the subtypes scanner.
type SubTypesConfig struct {
	// ExcludeObject drops java.lang.Object as a supertype key.
	ExcludeObject bool `yaml:"exclude_object" json:"exclude_object"`
}

// ScanConfig configures the scan orchestrator and drivers.
type ScanConfig struct {
	// Workers is the number of roots scanned in parallel (<=1 is sequential).
	Workers int `yaml:"workers" json:"workers"`
	// RespectGitignore skips directory entries matched by .gitignore files.
	RespectGitignore bool `yaml:"respect_gitignore" json:"respect_gitignore"`
	// FollowSymlinks yields symlinked files from directory roots.
	FollowSymlinks bool `yaml:"follow_symlinks" json:"follow_symlinks"`
	// NestedMemoryLimitMB caps in-memory buffering of nested archives.
	// Larger inner archives are spooled to a temp file.
	NestedMemoryLimitMB int `yaml:"nested_memory_limit_mb" json:"nested_memory_limit_mb"`
}

// ExpandConfig configures the post-scan supertype expansion pass.
type ExpandConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Catalogs are YAML files mapping a type to its direct supertypes.
	Catalogs []string `yaml:"catalogs" json:"catalogs"`
	// Libraries are locators scanned for subtypes only and used as a
	// supertype source for types outside the scanned roots.
	Libraries []string `yaml:"libraries" json:"libraries"`
	// CacheSize bounds the resolver LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// LoggingConfig configures the stderr logger of the CLI. With --debug the
// level is forced to debug and records also go to the log file.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version:  1,
		Roots:    []string{},
		Scanners: append([]string(nil), KnownScanners...),
		SubTypes: SubTypesConfig{
			ExcludeObject: true,
		},
		Scan: ScanConfig{
			Workers:             runtime.NumCPU(),
			RespectGitignore:    true,
			FollowSymlinks:      false,
			NestedMemoryLimitMB: 64,
		},
		Expand: ExpandConfig{
			Enabled:   false,
			CacheSize: 4096,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/typemap/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/typemap/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "typemap", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "typemap", "config.yaml")
	}
	return filepath.Join(home, ".config", "typemap", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	var parsed Config
	if err := readYAML(configPath, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/typemap/config.yaml)
//  3. Project config (.typemap.yaml in project root)
//  4. Environment variables (TYPEMAP_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	userCfg, err := LoadUserConfig()
	if err != nil {
		return nil, err
	}
	if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile loads defaults overlaid with a single explicit config file.
// Environment overrides still apply.
func LoadFile(path string) (*Config, error) {
	if !fileExists(path) {
		return nil, errors.New(errors.ErrCodeConfigNotFound, "config file not found: "+path, nil).
			WithSuggestion("run 'typemap config init' to create one")
	}

	cfg := NewConfig()
	var parsed Config
	if err := readYAML(path, &parsed); err != nil {
		return nil, err
	}
	cfg.mergeWith(&parsed)
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile merges .typemap.yaml (or .typemap.yml) from dir if present.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".typemap.yaml", ".typemap.yml"} {
		path := filepath.Join(dir, name)
		if !fileExists(path) {
			continue
		}

		var parsed Config
		if err := readYAML(path, &parsed); err != nil {
			return err
		}
		c.mergeWith(&parsed)
		return nil
	}
	return nil
}

func readYAML(path string, into *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New(errors.ErrCodeConfigInvalid, "failed to read config file "+path, err)
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return errors.New(errors.ErrCodeConfigInvalid, "failed to parse config file "+path, err).
			WithDetail("path", path)
	}

	var eb explicitBools
	if err := yaml.Unmarshal(data, &eb); err == nil {
		into.rawBools = map[string]bool{}
		if eb.SubTypes.ExcludeObject != nil {
			into.rawBools["subtypes.exclude_object"] = *eb.SubTypes.ExcludeObject
		}
		if eb.Scan.RespectGitignore != nil {
			into.rawBools["scan.respect_gitignore"] = *eb.Scan.RespectGitignore
		}
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
// Booleans defaulting to true cannot be switched off from YAML zero values,
// so ExcludeObject and RespectGitignore are merged through rawBools.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Roots) > 0 {
		c.Roots = other.Roots
	}

	if len(other.Filter.Include) > 0 {
		c.Filter.Include = other.Filter.Include
	}
	if len(other.Filter.Exclude) > 0 {
		c.Filter.Exclude = append(c.Filter.Exclude, other.Filter.Exclude...)
	}
	if other.Filter.Packages != "" {
		c.Filter.Packages = other.Filter.Packages
	}
	if len(other.Filter.Paths) > 0 {
		c.Filter.Paths = append(c.Filter.Paths, other.Filter.Paths...)
	}

	if len(other.Scanners) > 0 {
		c.Scanners = other.Scanners
	}
	if other.rawBools != nil {
		if v, ok := other.rawBools["subtypes.exclude_object"]; ok {
			c.SubTypes.ExcludeObject = v
		}
		if v, ok := other.rawBools["scan.respect_gitignore"]; ok {
			c.Scan.RespectGitignore = v
		}
	}

	if other.Scan.Workers != 0 {
		c.Scan.Workers = other.Scan.Workers
	}
	if other.Scan.FollowSymlinks {
		c.Scan.FollowSymlinks = true
	}
	if other.Scan.NestedMemoryLimitMB != 0 {
		c.Scan.NestedMemoryLimitMB = other.Scan.NestedMemoryLimitMB
	}

	if other.Expand.Enabled {
		c.Expand.Enabled = true
	}
	if len(other.Expand.Catalogs) > 0 {
		c.Expand.Catalogs = other.Expand.Catalogs
	}
	if len(other.Expand.Libraries) > 0 {
		c.Expand.Libraries = other.Expand.Libraries
	}
	if other.Expand.CacheSize != 0 {
		c.Expand.CacheSize = other.Expand.CacheSize
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}
}

// applyEnvOverrides applies TYPEMAP_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TYPEMAP_WORKERS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			c.Scan.Workers = n
		}
	}
	if v := os.Getenv("TYPEMAP_EXPAND"); v != "" {
		c.Expand.Enabled = parseBool(v)
	}
	if v := os.Getenv("TYPEMAP_RESPECT_GITIGNORE"); v != "" {
		c.Scan.RespectGitignore = parseBool(v)
	}
	if v := os.Getenv("TYPEMAP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes"
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Scan.Workers < 0 {
		return invalid("scan.workers must be non-negative, got %d", c.Scan.Workers)
	}
	if c.Scan.NestedMemoryLimitMB < 0 {
		return invalid("scan.nested_memory_limit_mb must be non-negative, got %d", c.Scan.NestedMemoryLimitMB)
	}
	if c.Expand.CacheSize < 0 {
		return invalid("expand.cache_size must be non-negative, got %d", c.Expand.CacheSize)
	}

	known := make(map[string]bool, len(KnownScanners))
	for _, s := range KnownScanners {
		known[s] = true
	}
	if len(c.Scanners) == 0 {
		return invalid("scanners must list at least one scanner")
	}
	for _, s := range c.Scanners {
		if !known[s] {
			return invalid("unknown scanner %q (valid: %s)", s, strings.Join(KnownScanners, ", "))
		}
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return invalid("logging.format must be 'json' or 'text', got %s", c.Logging.Format)
	}

	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeConfigInvalid, "invalid configuration: "+fmt.Sprintf(format, args...), nil)
}

// HasScanner reports whether name is enabled.
func (c *Config) HasScanner(name string) bool {
	for _, s := range c.Scanners {
		if s == name {
			return true
		}
	}
	return false
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DetectProjectType detects the build layout based on marker files.
// Priority: pom.xml > build.gradle(.kts)
func DetectProjectType(dir string) ProjectType {
	if fileExists(filepath.Join(dir, "pom.xml")) {
		return ProjectTypeMaven
	}
	if fileExists(filepath.Join(dir, "build.gradle")) ||
		fileExists(filepath.Join(dir, "build.gradle.kts")) {
		return ProjectTypeGradle
	}
	return ProjectTypeUnknown
}

// DiscoverRoots returns the conventional source and output directories that
// exist under dir for its build layout. It falls back to dir itself.
func DiscoverRoots(dir string) []string {
	var candidates []string
	switch DetectProjectType(dir) {
	case ProjectTypeMaven:
		candidates = []string{"src/main/java", "src/main/resources", "target/classes"}
	case ProjectTypeGradle:
		candidates = []string{"src/main/java", "src/main/resources", "build/classes/java/main", "build/resources/main"}
	}

	var roots []string
	for _, c := range candidates {
		p := filepath.Join(dir, filepath.FromSlash(c))
		if dirExists(p) {
			roots = append(roots, p)
		}
	}
	if len(roots) == 0 {
		return []string{dir}
	}
	return roots
}

// FindProjectRoot finds the project root directory.
// It walks up from startDir looking for .typemap.yaml/.yml, a build file or .git.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if fileExists(filepath.Join(currentDir, ".typemap.yaml")) ||
			fileExists(filepath.Join(currentDir, ".typemap.yml")) ||
			DetectProjectType(currentDir).IsKnown() ||
			dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			return absDir, nil
		}
		currentDir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// String returns the project type name.
func (p ProjectType) String() string {
	return string(p)
}

// IsKnown returns true if the project type is known (not unknown).
func (p ProjectType) IsKnown() bool {
	return p != ProjectTypeUnknown
}
