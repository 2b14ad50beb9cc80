//go:build js && wasm

// Command tiltsim-wasm exposes the simulator to a browser worker:
//
//	GOOS=js GOARCH=wasm go build -o tiltsim.wasm ./cmd/tiltsim-wasm
//
// After instantiation the global TiltSimulator(width, height) returns an
// object with update(accel, dt), get_state(accel), greet(name) and free().
// free releases the object's callbacks; the object is unusable afterwards.
package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/san-kum/tiltsim/internal/tilt"
)

func main() {
	js.Global().Set("TiltSimulator", js.FuncOf(construct))
	select {}
}

func jsError(format string, args ...any) js.Value {
	return js.Global().Get("Error").New(fmt.Sprintf(format, args...))
}

func construct(this js.Value, args []js.Value) any {
	if len(args) < 2 || args[0].Type() != js.TypeNumber || args[1].Type() != js.TypeNumber {
		return jsError("TiltSimulator(width, height): numeric dimensions required")
	}
	sim, err := tilt.New(args[0].Float(), args[1].Float())
	if err != nil {
		return jsError("%v", err)
	}

	obj := js.Global().Get("Object").New()
	var funcs []js.Func
	method := func(name string, fn func(this js.Value, args []js.Value) any) {
		f := js.FuncOf(fn)
		funcs = append(funcs, f)
		obj.Set(name, f)
	}

	method("update", func(this js.Value, args []js.Value) any {
		dt := 0.0
		if len(args) > 1 && args[1].Type() == js.TypeNumber {
			dt = args[1].Float()
		}
		if err := sim.Update(hostValue(args, 0), dt); err != nil {
			debug("update ignored:", err)
		}
		return js.Undefined()
	})
	method("get_state", func(this js.Value, args []js.Value) any {
		st, err := sim.State(hostValue(args, 0))
		if err != nil {
			debug("neutral tilt:", err)
		}
		return toJS(st)
	})
	method("greet", func(this js.Value, args []js.Value) any {
		name := ""
		if len(args) > 0 {
			name = args[0].String()
		}
		return sim.Greet(name)
	})
	method("free", func(this js.Value, args []js.Value) any {
		for _, name := range []string{"update", "get_state", "greet", "free"} {
			obj.Delete(name)
		}
		for _, f := range funcs {
			f.Release()
		}
		funcs = nil
		return js.Undefined()
	})
	return obj
}

// hostValue turns a JS value into JSON bytes for tilt.DecodeValue. Anything
// JSON.stringify rejects becomes nil, which decodes as a failure.
func hostValue(args []js.Value, i int) (out any) {
	if len(args) <= i || args[i].IsUndefined() || args[i].IsNull() {
		return nil
	}
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	s := js.Global().Get("JSON").Call("stringify", args[i])
	if s.Type() != js.TypeString {
		return nil
	}
	return []byte(s.String())
}

// toJS round-trips through JSON; any failure yields undefined.
func toJS(st tilt.State) (out js.Value) {
	defer func() {
		if recover() != nil {
			out = js.Undefined()
		}
	}()
	data, err := json.Marshal(st)
	if err != nil {
		return js.Undefined()
	}
	return js.Global().Get("JSON").Call("parse", string(data))
}

func debug(msg string, err error) {
	js.Global().Get("console").Call("debug", "tiltsim:", msg, err.Error())
}
