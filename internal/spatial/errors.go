package spatial

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCRS       = errors.New("unknown coordinate reference system")
	ErrMissingAttribute = errors.New("missing attribute")
)

// AttributeError reports a feature attribute that cannot be used for color mapping.
type AttributeError struct {
	Source    string
	Feature   int
	Attribute string
	Value     string
	Err       error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("%s: feature %d: attribute %q: cannot parse %q: %v", e.Source, e.Feature, e.Attribute, e.Value, e.Err)
}

func (e *AttributeError) Unwrap() error {
	return e.Err
}
