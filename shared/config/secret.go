package config

const redactedPlaceholder = "***REDACTED***"

var redactedJSON = []byte(`"` + redactedPlaceholder + `"`)

// SecretString holds a credential. It prints and marshals as a placeholder so
// config dumps and log lines never carry the raw value.
type SecretString string

func (s SecretString) String() string {
	return redactedPlaceholder
}

func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// Unmask returns the raw value. Only pass it straight to the client that needs it.
func (s SecretString) Unmask() string {
	return string(s)
}
