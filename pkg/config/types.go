// pkg/config/types.go
package config

import "time"

// Config is the root configuration structure for hostrecon.
type Config struct {
	Log          LogConfig          `description:"Logging configuration" koanf:"log" yaml:"log"`
	Console      ConsoleConfig      `description:"Operator console configuration" koanf:"console" yaml:"console"`
	Artifact     ArtifactConfig     `description:"Port list artifact" koanf:"artifact" yaml:"artifact"`
	Reachability ReachabilityConfig `description:"Liveness probe configuration" koanf:"reachability" yaml:"reachability"`
	Scan         ScanConfig         `description:"Port discovery configuration" koanf:"scan" yaml:"scan"`
	Tools        ToolsConfig        `description:"External tool locations" koanf:"tools" yaml:"tools"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level for diagnostics" koanf:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `description:"Log format: json | text" koanf:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// ConsoleConfig controls operator status lines.
type ConsoleConfig struct {
	NoColor bool `description:"Disable colored status lines" koanf:"no_color" yaml:"no_color"`
}

// ArtifactConfig locates the port list written by port discovery.
type ArtifactConfig struct {
	Path string `description:"Port list file, relative to the working directory" koanf:"path" yaml:"path" validate:"required"`
}

// ReachabilityConfig configures the liveness gate.
type ReachabilityConfig struct {
	Method     string        `description:"Liveness prober: exec (system ping) | icmp (in-process)" koanf:"method" yaml:"method" validate:"oneof=exec icmp"`
	Count      int           `description:"Echo requests per probe" koanf:"count" yaml:"count" validate:"min=1,max=100"`
	Timeout    time.Duration `description:"Upper bound for the in-process icmp prober" koanf:"timeout" yaml:"timeout" validate:"gt=0"`
	Privileged bool          `description:"Use raw sockets for the icmp prober" koanf:"privileged" yaml:"privileged"`
}

// ScanConfig configures the full-range port scan.
type ScanConfig struct {
	MinRate int `description:"Minimum packets per second for the full-range scan" koanf:"min_rate" yaml:"min_rate" validate:"min=1"`
}

// ToolsConfig names the external collaborators.
type ToolsConfig struct {
	Ping           string `description:"ping binary" koanf:"ping" yaml:"ping" validate:"required"`
	Nmap           string `description:"nmap binary" koanf:"nmap" yaml:"nmap" validate:"required"`
	MinNmapVersion string `description:"Oldest nmap release reported as supported by 'hostrecon tools'" koanf:"min_nmap_version" yaml:"min_nmap_version" validate:"required"`
}
