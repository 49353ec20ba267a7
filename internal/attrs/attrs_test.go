package attrs

import (
	"reflect"
	"testing"
)

func TestScalarNative(t *testing.T) {
	v := Scalar(42)
	if got := v.Native(); got != 42 {
		t.Errorf("Native() = %v, want 42", got)
	}
	if _, ok := v.AsMap(); ok {
		t.Error("AsMap() ok = true for a scalar Value")
	}
}

func TestMapNativeIsRealMapNotString(t *testing.T) {
	v := Map(map[string]Value{
		"mean":  Scalar(0.42),
		"count": Scalar(7),
	})

	native := v.Native()
	m, ok := native.(map[string]any)
	if !ok {
		t.Fatalf("Native() returned %T, want map[string]any (never a quoted JSON string)", native)
	}
	if m["mean"] != 0.42 || m["count"] != 7 {
		t.Errorf("Native() map = %+v, want mean=0.42 count=7", m)
	}
}

func TestListNative(t *testing.T) {
	v := List([]Value{Scalar("a"), Scalar("b")})
	native := v.Native()
	want := []any{"a", "b"}
	if !reflect.DeepEqual(native, want) {
		t.Errorf("Native() = %+v, want %+v", native, want)
	}
}

func TestNestedMapNative(t *testing.T) {
	v := Map(map[string]Value{
		"stats": Map(map[string]Value{"min": Scalar(-1.0), "max": Scalar(1.0)}),
		"tags":  List([]Value{Scalar("x"), Scalar("y")}),
	})

	native, ok := v.Native().(map[string]any)
	if !ok {
		t.Fatalf("Native() returned %T, want map[string]any", v.Native())
	}
	stats, ok := native["stats"].(map[string]any)
	if !ok {
		t.Fatalf("nested stats = %T, want map[string]any", native["stats"])
	}
	if stats["min"] != -1.0 || stats["max"] != 1.0 {
		t.Errorf("nested stats = %+v", stats)
	}
}

func TestMapCopiesInput(t *testing.T) {
	src := map[string]Value{"a": Scalar(1)}
	v := Map(src)
	src["a"] = Scalar(2)
	src["b"] = Scalar(3)

	m, _ := v.AsMap()
	av, _ := m["a"].AsScalar()
	if len(m) != 1 || av != 1 {
		t.Errorf("Map() did not copy its input: got %+v", m)
	}
}
