package reproj

import "fmt"

// ConfigError reports a fatal SRS/transform-parameter configuration
// defect, resolved before any input is read.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("reproj: config: %s", e.Detail)
}

// RuntimeError reports a fatal per-coordinate transform failure, naming
// the feature and part the driver was transforming when it happened.
type RuntimeError struct {
	FeatureIndex int
	Part         int
	Detail       string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("reproj: runtime: feature %d part %d: %s", e.FeatureIndex, e.Part, e.Detail)
}
