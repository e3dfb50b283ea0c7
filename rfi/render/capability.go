package render

import "errors"

// ErrDisabled is returned when rendering is requested but not enabled.
var ErrDisabled = errors.New("render: rendering disabled")

// Capability says whether rendering output may be produced.
type Capability bool

const (
	Disabled Capability = false
	Enabled  Capability = true
)

// Check returns ErrDisabled unless c is Enabled.
func (c Capability) Check() error {
	if !c {
		return ErrDisabled
	}
	return nil
}

func (c Capability) String() string {
	if c {
		return "enabled"
	}
	return "disabled"
}
