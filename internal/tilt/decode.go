package tilt

import (
	"encoding/json"
	"fmt"
	"math"
)

// wireAccel distinguishes a missing or null field from an explicit zero.
type wireAccel struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

// DecodeJSON reads an Accel from JSON text. Every axis must be present and
// numeric; extra fields are ignored.
func DecodeJSON(data []byte) (Accel, error) {
	var w wireAccel
	if err := json.Unmarshal(data, &w); err != nil {
		return Accel{}, &DecodeError{Reason: "invalid json", Err: err}
	}
	axes := [...]struct {
		name string
		v    *float64
	}{{"x", w.X}, {"y", w.Y}, {"z", w.Z}}
	for _, ax := range axes {
		if ax.v == nil {
			return Accel{}, &DecodeError{Field: ax.name, Reason: "missing or null"}
		}
	}
	return checked(Accel{X: *w.X, Y: *w.Y, Z: *w.Z})
}

// DecodeValue reads an Accel from a host-native value: an Accel, a non-nil
// *Accel, a map with numeric x/y/z entries, or raw JSON bytes.
func DecodeValue(v any) (Accel, error) {
	switch in := v.(type) {
	case Accel:
		return checked(in)
	case *Accel:
		if in == nil {
			return Accel{}, &DecodeError{Reason: "nil sample"}
		}
		return checked(*in)
	case map[string]any:
		return decodeMap(in)
	case json.RawMessage:
		return DecodeJSON(in)
	case []byte:
		return DecodeJSON(in)
	case nil:
		return Accel{}, &DecodeError{Reason: "null sample"}
	default:
		return Accel{}, &DecodeError{Reason: fmt.Sprintf("unsupported type %T", v)}
	}
}

func decodeMap(m map[string]any) (Accel, error) {
	var out [3]float64
	for i, name := range [...]string{"x", "y", "z"} {
		raw, ok := m[name]
		if !ok || raw == nil {
			return Accel{}, &DecodeError{Field: name, Reason: "missing or null"}
		}
		f, ok := toFloat(raw)
		if !ok {
			return Accel{}, &DecodeError{Field: name, Reason: fmt.Sprintf("not a number (%T)", raw)}
		}
		out[i] = f
	}
	return checked(Accel{X: out[0], Y: out[1], Z: out[2]})
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func checked(a Accel) (Accel, error) {
	if !a.IsValid() {
		field := "z"
		switch {
		case math.IsNaN(a.X) || math.IsInf(a.X, 0):
			field = "x"
		case math.IsNaN(a.Y) || math.IsInf(a.Y, 0):
			field = "y"
		}
		return Accel{}, &DecodeError{Field: field, Reason: "not finite"}
	}
	return a, nil
}
