//go:build js && wasm

package main

import (
	"syscall/js"
	"testing"
)

func newSim(t *testing.T) js.Value {
	t.Helper()
	obj, ok := construct(js.Undefined(), []js.Value{js.ValueOf(100), js.ValueOf(100)}).(js.Value)
	if !ok || obj.Type() != js.TypeObject || obj.Get("update").IsUndefined() {
		t.Fatalf("construct did not return a simulator object")
	}
	return obj
}

func TestUpdateAndState(t *testing.T) {
	obj := newSim(t)
	sample := js.ValueOf(map[string]any{"x": 10.0, "y": 0.0, "z": 0.0})

	obj.Call("update", sample, 0.016)
	st := obj.Call("get_state", sample)
	if got := st.Get("tilt_z_deg").Float(); got != -45 {
		t.Errorf("tilt_z_deg = %f, want -45", got)
	}
	p0 := st.Get("particles").Index(0)
	if p0.Get("x").Float() != 4 || p0.Get("vx").Float() != -1 {
		t.Errorf("unexpected first particle x=%f vx=%f", p0.Get("x").Float(), p0.Get("vx").Float())
	}

	neutral := obj.Call("get_state", js.ValueOf(map[string]any{"x": 1.0}))
	if neutral.Get("tilt_z_deg").Float() != 0 || neutral.Get("tilt_x_deg").Float() != 0 {
		t.Error("malformed sample should give neutral tilt")
	}
}

func TestGreet(t *testing.T) {
	obj := newSim(t)
	want := "Hello from Go, Worker! Simulator ready for 100x100 area."
	if got := obj.Call("greet", "Worker").String(); got != want {
		t.Errorf("greet = %q, want %q", got, want)
	}
}

func TestFreeRemovesMethods(t *testing.T) {
	obj := newSim(t)
	obj.Call("free")
	for _, name := range []string{"update", "get_state", "greet", "free"} {
		if !obj.Get(name).IsUndefined() {
			t.Errorf("%s still set after free", name)
		}
	}
}

func TestConstructRejectsBadSize(t *testing.T) {
	v := construct(js.Undefined(), []js.Value{js.ValueOf("wide"), js.ValueOf(1)})
	obj, ok := v.(js.Value)
	if !ok || !obj.InstanceOf(js.Global().Get("Error")) {
		t.Errorf("expected an Error for a non-numeric width, got %v", v)
	}
}
