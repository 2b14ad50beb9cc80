package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/tiltsim/internal/tilt"
)

var steppers = map[string]func() tilt.Stepper{
	"fixed":  func() tilt.Stepper { return NewFixed() },
	"scaled": func() tilt.Stepper { return NewScaled() },
}

// New returns the stepper registered under name.
func New(name string) (tilt.Stepper, error) {
	ctor, ok := steppers[name]
	if !ok {
		return nil, fmt.Errorf("unknown stepper %q (available: %v)", name, Names())
	}
	return ctor(), nil
}

func Names() []string {
	names := make([]string, 0, len(steppers))
	for name := range steppers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
