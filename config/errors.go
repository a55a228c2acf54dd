package config

import "fmt"

// ConfigurationError reports an environment setting that is present but
// unusable. The runner exits instead of substituting a default for it.
type ConfigurationError struct {
	Key    string
	Value  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%q %s", e.Key, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
