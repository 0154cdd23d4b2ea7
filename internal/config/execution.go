package config

// ExecutionConfig configures step processing.
type ExecutionConfig struct {
	// Steps processed concurrently; 1 processes them in order.
	Workers int `yaml:"workers" json:"workers,omitempty"`
}
