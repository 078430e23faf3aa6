package types

import "testing"

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Int(0), false},
		{Int(1), true},
		{Int(-3), true},
		{String(""), false},
		{String("go"), true},
	}
	for _, tt := range tests {
		if got := Truthy(tt.v); got != tt.want {
			t.Errorf("Truthy(%s) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestEqualAcrossTypes(t *testing.T) {
	if Int(1).Equal(String("1")) {
		t.Error("int and string must never be equal")
	}
	if !String("a").Equal(String("a")) {
		t.Error("equal strings")
	}
}

func TestJoin(t *testing.T) {
	got := Join([]Value{String("at"), Int(2), Int(-1)})
	if got != "at 2 -1" {
		t.Errorf("got %q", got)
	}
	if Bool(true) != 1 || Bool(false) != 0 {
		t.Error("Bool")
	}
}
