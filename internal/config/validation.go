package config

import (
	"fmt"
	"net"
	"strings"

	"yqhp/fractal-engine/internal/evaluator"
	"yqhp/fractal-engine/internal/grid"
	"yqhp/fractal-engine/pkg/types"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Fields returns the names of the invalid fields.
func (e ValidationErrors) Fields() []string {
	fields := make([]string, len(e))
	for i, err := range e {
		fields[i] = err.Field
	}
	return fields
}

// Validator validates configuration values.
type Validator struct {
	kinds  *evaluator.Registry
	errors ValidationErrors
}

// NewValidator creates a validator that accepts the built-in fractal kinds.
func NewValidator() *Validator {
	return &Validator{
		kinds:  evaluator.DefaultRegistry(),
		errors: make(ValidationErrors, 0),
	}
}

// WithRegistry accepts the fractal kinds known to registry instead.
func (v *Validator) WithRegistry(registry *evaluator.Registry) *Validator {
	v.kinds = registry
	return v
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// Validate validates the entire configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateGridConfig(cfg)
	v.validateFractalConfig(&cfg.Fractal)
	v.validateMasterConfig(&cfg.Master)
	v.validateWorkerConfig(&cfg.Worker)
	v.validateLoggingConfig(&cfg.Logging)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateGridConfig(cfg *Config) {
	g := &cfg.Grid
	if g.Width <= 0 {
		v.addError("grid.width", "width must be positive")
	}
	if g.Height <= 0 {
		v.addError("grid.height", "height must be positive")
	}
	if g.BaseWidth <= 0 {
		v.addError("grid.base_width", "base width must be positive")
	}
	if g.Width > 0 && g.Height > 0 && int64(g.Width)*int64(g.Height) > grid.MaxCells {
		v.addError("grid", fmt.Sprintf("%dx%d exceeds %d cells", g.Width, g.Height, grid.MaxCells))
	}

	w := cfg.Window()
	if !(w.XMin < w.XMax) {
		v.addError("grid.x_min", fmt.Sprintf("x_min (%g) must be less than x_max (%g)", w.XMin, w.XMax))
	}
	if !(w.YMin < w.YMax) {
		v.addError("grid.y_min", fmt.Sprintf("y_min (%g) must be less than y_max (%g)", w.YMin, w.YMax))
	}
}

func (v *Validator) validateFractalConfig(cfg *FractalConfig) {
	if cfg.Kind == "" {
		v.addError("fractal.kind", "fractal kind is required")
	} else if !v.kinds.Has(cfg.Kind) {
		v.addError("fractal.kind", fmt.Sprintf("unknown fractal kind '%s', must be one of: %s",
			cfg.Kind, strings.Join(v.kinds.Kinds(), ", ")))
	}
	if cfg.MaxIter <= 0 {
		v.addError("fractal.max_iter", "max iterations must be positive")
	}
	if cfg.Epsilon < 0 {
		v.addError("fractal.epsilon", "epsilon must be non-negative")
	}
}

func (v *Validator) validateMasterConfig(cfg *MasterConfig) {
	if cfg.Address == "" {
		v.addError("master.address", "address is required")
	} else if !isValidAddress(cfg.Address) {
		v.addError("master.address", "invalid address format, expected host:port or :port")
	}
	if cfg.Workers <= 0 {
		v.addError("master.workers", "worker count must be positive")
	}
	switch types.UnitMode(cfg.Mode) {
	case types.UnitModeLightweight, types.UnitModePrecomputed:
	default:
		v.addError("master.mode", fmt.Sprintf("invalid unit mode '%s', must be one of: lightweight, precomputed", cfg.Mode))
	}
}

func (v *Validator) validateWorkerConfig(cfg *WorkerConfig) {
	if cfg.MasterAddr == "" {
		v.addError("worker.master_addr", "master address is required")
	} else if !isValidAddress(stripScheme(cfg.MasterAddr)) {
		v.addError("worker.master_addr", "invalid master address format, expected host:port or a ws/http URL")
	}
	if cfg.Parallelism < 0 {
		v.addError("worker.parallelism", "parallelism must be non-negative")
	}
	if cfg.HandshakeTimeout < 0 {
		v.addError("worker.handshake_timeout", "handshake timeout must be non-negative")
	}
}

func (v *Validator) validateLoggingConfig(cfg *LoggingConfig) {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if cfg.Level == "" {
		v.addError("logging.level", "log level is required")
	} else if !validLevels[strings.ToLower(cfg.Level)] {
		v.addError("logging.level", fmt.Sprintf("invalid log level '%s', must be one of: debug, info, warn, error", cfg.Level))
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if cfg.Format == "" {
		v.addError("logging.format", "log format is required")
	} else if !validFormats[strings.ToLower(cfg.Format)] {
		v.addError("logging.format", fmt.Sprintf("invalid log format '%s', must be one of: json, console", cfg.Format))
	}

	switch strings.ToLower(cfg.Output) {
	case "", "stdout", "stderr":
	case "file", "both":
		if cfg.FilePath == "" {
			v.addError("logging.file_path", "file path is required for file output")
		}
	default:
		v.addError("logging.output", fmt.Sprintf("invalid log output '%s', must be one of: stdout, stderr, file, both", cfg.Output))
	}
}

// stripScheme removes a ws, wss, http or https scheme and any path.
func stripScheme(addr string) string {
	for _, scheme := range []string{"ws://", "wss://", "http://", "https://"} {
		if strings.HasPrefix(addr, scheme) {
			addr = strings.TrimPrefix(addr, scheme)
			if i := strings.IndexByte(addr, '/'); i >= 0 {
				addr = addr[:i]
			}
			return addr
		}
	}
	return addr
}

// isValidAddress checks if the address is a valid host:port format.
func isValidAddress(addr string) bool {
	if addr == "" {
		return false
	}

	if strings.HasPrefix(addr, ":") {
		port := strings.TrimPrefix(addr, ":")
		if port == "" {
			return false
		}
		_, err := net.LookupPort("tcp", port)
		return err == nil
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return false
	}
	if _, err := net.LookupPort("tcp", port); err != nil {
		return false
	}

	if host != "" && net.ParseIP(host) == nil && !isValidHostname(host) {
		return false
	}
	return true
}

// isValidHostname performs basic hostname validation.
func isValidHostname(hostname string) bool {
	if len(hostname) == 0 || len(hostname) > 253 {
		return false
	}

	for _, label := range strings.Split(hostname, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if !isAlphanumeric(label[0]) || !isAlphanumeric(label[len(label)-1]) {
			return false
		}
		for _, c := range label {
			if !isAlphanumeric(byte(c)) && c != '-' {
				return false
			}
		}
	}
	return true
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	return NewValidator().Validate(c)
}

// LoadAndValidate loads configuration from a file and validates it.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
