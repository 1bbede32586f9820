package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"yqhp/fractal-engine/pkg/types"
)

// DefaultEnvPrefix is prepended to every env tag.
const DefaultEnvPrefix = "FE_"

// Config represents the complete configuration of a run.
type Config struct {
	Grid    GridConfig    `yaml:"grid"`
	Fractal FractalConfig `yaml:"fractal"`
	Master  MasterConfig  `yaml:"master"`
	Worker  WorkerConfig  `yaml:"worker"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// GridConfig holds the pixel dimensions and the complex-plane window.
// An all-zero window selects the fractal's preset window.
type GridConfig struct {
	Width     int     `yaml:"width" env:"GRID_WIDTH"`
	Height    int     `yaml:"height" env:"GRID_HEIGHT"`
	BaseWidth int     `yaml:"base_width" env:"GRID_BASE_WIDTH"`
	XMin      float64 `yaml:"x_min" env:"GRID_X_MIN"`
	XMax      float64 `yaml:"x_max" env:"GRID_X_MAX"`
	YMin      float64 `yaml:"y_min" env:"GRID_Y_MIN"`
	YMax      float64 `yaml:"y_max" env:"GRID_Y_MAX"`
}

// FractalConfig selects the point evaluator.
type FractalConfig struct {
	Kind    string  `yaml:"kind" env:"FRACTAL_KIND"`
	MaxIter int     `yaml:"max_iter" env:"FRACTAL_MAX_ITER"`
	Epsilon float64 `yaml:"epsilon" env:"FRACTAL_EPSILON"`
}

// MasterConfig holds master settings.
type MasterConfig struct {
	Address string `yaml:"address" env:"MASTER_ADDRESS"`
	Workers int    `yaml:"workers" env:"MASTER_WORKERS"`
	Mode    string `yaml:"mode" env:"MASTER_MODE"`
}

// WorkerConfig holds worker settings.
type WorkerConfig struct {
	MasterAddr       string        `yaml:"master_addr" env:"WORKER_MASTER_ADDR"`
	ID               string        `yaml:"id" env:"WORKER_ID"`
	Parallelism      int           `yaml:"parallelism" env:"WORKER_PARALLELISM"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" env:"WORKER_HANDSHAKE_TIMEOUT"`
}

// OutputConfig holds where the grid is written. An empty path derives one from the fractal kind.
type OutputConfig struct {
	Path string `yaml:"path" env:"OUTPUT_PATH"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	Output     string `yaml:"output" env:"LOG_OUTPUT"`
	FilePath   string `yaml:"file_path" env:"LOG_FILE_PATH"`
	MaxSize    int    `yaml:"max_size" env:"LOG_MAX_SIZE"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS"`
	MaxAge     int    `yaml:"max_age" env:"LOG_MAX_AGE"`
}

// presetWindows are the windows used when none is configured.
var presetWindows = map[string]types.Window{
	"newton":     {XMin: -0.05, XMax: 0.05, YMin: -0.05, YMax: 0.05},
	"mandelbrot": {XMin: -1.5, XMax: -1.2, YMin: -0.1, YMax: 0.1},
}

// PresetWindow returns the default window of a fractal kind.
func PresetWindow(kind string) (types.Window, bool) {
	w, ok := presetWindows[kind]
	return w, ok
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			Width:     4000,
			Height:    4000,
			BaseWidth: 4000,
		},
		Fractal: FractalConfig{
			Kind:    "newton",
			MaxIter: 1000,
			Epsilon: 1e-6,
		},
		Master: MasterConfig{
			Address: ":8080",
			Workers: 4,
			Mode:    string(types.UnitModeLightweight),
		},
		Worker: WorkerConfig{
			MasterAddr:       "localhost:8080",
			HandshakeTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stderr",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// Window returns the configured window, or the fractal's preset when none is set.
func (c *Config) Window() types.Window {
	w := types.Window{XMin: c.Grid.XMin, XMax: c.Grid.XMax, YMin: c.Grid.YMin, YMax: c.Grid.YMax}
	if w == (types.Window{}) {
		if preset, ok := PresetWindow(c.Fractal.Kind); ok {
			return preset
		}
	}
	return w
}

// FractalSpec returns the evaluator spec.
func (c *Config) FractalSpec() types.FractalSpec {
	return types.FractalSpec{
		Kind:    c.Fractal.Kind,
		MaxIter: c.Fractal.MaxIter,
		Epsilon: c.Fractal.Epsilon,
	}
}

// Job builds the job handed to workers.
func (c *Config) Job(id string) *types.JobSpec {
	return &types.JobSpec{
		ID:      id,
		Width:   c.Grid.Width,
		Height:  c.Grid.Height,
		Window:  c.Window(),
		Fractal: c.FractalSpec(),
		Mode:    types.UnitMode(c.Master.Mode),
	}
}

// OutputPath returns the configured output path or <kind>_dist_output.dat.
func (c *Config) OutputPath() string {
	if c.Output.Path != "" {
		return c.Output.Path
	}
	return fmt.Sprintf("%s_dist_output.dat", c.Fractal.Kind)
}

// SequentialOutputPath returns the file name used by the sequential baseline.
func (c *Config) SequentialOutputPath(multiplier int) string {
	return fmt.Sprintf("%s_seq_%d_output.dat", c.Fractal.Kind, multiplier)
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	envPrefix  string
	cmdArgs    map[string]string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: DefaultEnvPrefix,
		cmdArgs:   make(map[string]string),
	}
}

// WithConfigPath sets the path to the YAML configuration file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the prefix for environment variables.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithCmdArgs sets command-line overrides keyed by dot path, e.g. "grid.width".
func (l *Loader) WithCmdArgs(args map[string]string) *Loader {
	l.cmdArgs = args
	return l
}

// Load loads configuration from all sources with proper precedence:
// defaults < YAML file < environment variables < command-line flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.applyEnvToStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := l.applyCmdOverrides(cfg); err != nil {
		return nil, fmt.Errorf("apply command-line overrides: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from the YAML file the caller named.
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", l.configPath, err)
	}
	return nil
}

// applyEnvToStruct recursively applies environment variables to struct fields.
func (l *Loader) applyEnvToStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := l.applyEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		name := l.envPrefix + envTag
		envValue := os.Getenv(name)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

// applyCmdOverrides applies command-line argument overrides to the configuration.
func (l *Loader) applyCmdOverrides(cfg *Config) error {
	for key, value := range l.cmdArgs {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a configuration value by its yaml dot path.
func setConfigValue(cfg *Config, path, value string) error {
	parts := strings.Split(path, ".")
	v := reflect.ValueOf(cfg).Elem()

	for i, part := range parts {
		field, ok := fieldByYAMLName(v, part)
		if !ok {
			return fmt.Errorf("unknown config path %q", path)
		}

		if i == len(parts)-1 {
			return setFieldValue(field, value)
		}

		if field.Kind() != reflect.Struct {
			return fmt.Errorf("%s is a %s, not a section", part, field.Kind())
		}
		v = field
	}

	return nil
}

func fieldByYAMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("yaml"), ",")[0]
		if tag == name || strings.EqualFold(t.Field(i).Name, strings.ReplaceAll(name, "_", "")) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from a string value.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}

	return nil
}

// Serialize serializes the configuration to YAML bytes.
func (c *Config) Serialize() ([]byte, error) {
	return yaml.Marshal(c)
}

// LoadFromFile loads configuration from a YAML file path.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}
