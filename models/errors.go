package models

import "fmt"

// ConfigError describes a configuration value the engine cannot use.
type ConfigError struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config %s: %s", e.Field, e.Message)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(". Did you mean '%s'?", e.Suggestion)
	}
	return msg
}
