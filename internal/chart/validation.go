package chart

import "fmt"

// ValidationError reports a chart request that does not satisfy its
// chart type's requirements.
type ValidationError struct {
	Field   Field  // offending request field
	Message string // human-readable error message
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UnknownColumnError reports a referenced column the dataset lacks.
type UnknownColumnError struct {
	Field  Field
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("Column '%s' not found in dataset", e.Column)
}
