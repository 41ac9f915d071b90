package seva

import "fmt"

// ConfigurationError signals malformed offering reference data.
// It is never a user-facing outcome.
type ConfigurationError struct {
	OfferingID string
	Field      string
	Message    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("offering %s: invalid %s: %s", e.OfferingID, e.Field, e.Message)
}

func configErr(offeringID, field, format string, args ...any) error {
	return &ConfigurationError{OfferingID: offeringID, Field: field, Message: fmt.Sprintf(format, args...)}
}
