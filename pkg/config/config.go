// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

var validate = validator.New()

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a Manager with its own koanf instance.
func NewManager() *Manager {
	return &Manager{
		koanfInstance: koanf.New("."),
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded default values.
// These serve as the baseline configuration if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "error",
			Format: "text",
		},
		Artifact: ArtifactConfig{
			Path: "OpenPorts.txt",
		},
		Reachability: ReachabilityConfig{
			Method:  "exec",
			Count:   4,
			Timeout: 10 * time.Second,
		},
		Scan: ScanConfig{
			MinRate: 5000,
		},
		Tools: ToolsConfig{
			Ping:           "ping",
			Nmap:           "nmap",
			MinNmapVersion: "7.0.0",
		},
	}
}

// DefaultConfigAsMap converts DefaultConfig to the flat key map consumed by
// koanf's confmap provider, so every key exists before flags are applied.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,

		"console.no_color": def.Console.NoColor,

		"artifact.path": def.Artifact.Path,

		"reachability.method":     def.Reachability.Method,
		"reachability.count":      def.Reachability.Count,
		"reachability.timeout":    def.Reachability.Timeout.String(),
		"reachability.privileged": def.Reachability.Privileged,

		"scan.min_rate": def.Scan.MinRate,

		"tools.ping":             def.Tools.Ping,
		"tools.nmap":             def.Tools.Nmap,
		"tools.min_nmap_version": def.Tools.MinNmapVersion,
	}
}

// Load applies sources in ascending priority order, unmarshals the merged
// result and validates it. The previous configuration is kept on failure.
func (m *Manager) Load(sources ...ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := make([]ConfigSource, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	k := koanf.New(".")
	for _, src := range ordered {
		if err := src.Load(k); err != nil {
			return fmt.Errorf("config source %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := k.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	if err := Validate(newCfg); err != nil {
		return err
	}

	m.koanfInstance = k
	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// Keys returns every loaded key in sorted order.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance.Keys()
}

// Lookup returns the string form of a single loaded key.
func (m *Manager) Lookup(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.koanfInstance.Exists(key) {
		return "", false
	}
	return cast.ToString(m.koanfInstance.Get(key)), true
}

// ValidationError reports one invalid configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Reason == "" {
		return e.Field + ": invalid"
	}
	return e.Field + ": " + e.Reason
}

// Validate checks cfg against its struct tags and returns the first failure
// as a *ValidationError keyed by the koanf path of the field.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}

	fe := verrs[0]
	reason := fe.Tag()
	if fe.Param() != "" {
		reason += "=" + fe.Param()
	}
	return &ValidationError{
		Field:  koanfPath(fe.StructNamespace()),
		Reason: fmt.Sprintf("must satisfy %s (got %v)", reason, fe.Value()),
	}
}

// koanfPath maps "Config.Reachability.Count" to "reachability.count".
func koanfPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 0 && parts[0] == "Config" {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"log-format":   "log.format",
	"no-color":     "console.no_color",
	"artifact":     "artifact.path",
	"reachability": "reachability.method",
	"ping-count":   "reachability.count",
	"ping-timeout": "reachability.timeout",
	"privileged":   "reachability.privileged",
	"min-rate":     "scan.min_rate",
	"ping":         "tools.ping",
	"nmap":         "tools.nmap",
}

// FlagKey returns the configuration key bound to a flag name.
func FlagKey(name string) (string, bool) {
	key, ok := flagKeys[name]
	return key, ok
}

// BindFlags defines command-line flags corresponding to configuration settings.
// These flags allow overriding config file / environment variable settings.
func BindFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()

	flags.String("log-level", defaults.Log.Level, "Diagnostic log level (debug, info, warn, error)")
	flags.String("log-format", defaults.Log.Format, "Diagnostic log format (text, json)")
	flags.Bool("no-color", defaults.Console.NoColor, "Disable colored status lines")
	flags.String("artifact", defaults.Artifact.Path, "File receiving the discovered open ports")
	flags.String("reachability", defaults.Reachability.Method, "Liveness prober (exec, icmp)")
	flags.Int("ping-count", defaults.Reachability.Count, "Echo requests sent by the liveness probe")
	flags.Duration("ping-timeout", defaults.Reachability.Timeout, "Upper bound for the icmp liveness prober")
	flags.Bool("privileged", defaults.Reachability.Privileged, "Use raw sockets for the icmp liveness prober")
	flags.Int("min-rate", defaults.Scan.MinRate, "Minimum packet rate for the full-range port scan")
	flags.String("ping", defaults.Tools.Ping, "ping binary")
	flags.String("nmap", defaults.Tools.Nmap, "nmap binary")

	var flagvar bool
	flags.BoolVar(&flagvar, "debug", false, "Enable debug logging")
}
