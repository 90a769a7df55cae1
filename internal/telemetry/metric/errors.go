package metric

import "errors"

// Registry errors. Returned errors wrap one of these with the metric name,
// so callers match with errors.Is.
var (
	// ErrDuplicateMetric is returned when a name is registered twice.
	ErrDuplicateMetric = errors.New("metric: duplicate metric")

	// ErrUnknownMetric is returned when a name was never registered.
	ErrUnknownMetric = errors.New("metric: unknown metric")

	// ErrLabelMismatch is returned when label values do not match the
	// declared label names.
	ErrLabelMismatch = errors.New("metric: label mismatch")

	// ErrInvalidValue is returned for negative counter deltas, NaN
	// observations and label values that are not valid UTF-8.
	ErrInvalidValue = errors.New("metric: invalid value")

	// ErrKindMismatch is returned when an operation targets a metric of another kind.
	ErrKindMismatch = errors.New("metric: kind mismatch")

	// ErrInvalidDefinition is returned when a definition cannot be registered.
	ErrInvalidDefinition = errors.New("metric: invalid definition")
)
