package models

import (
	"encoding/json"
	"testing"
)

func TestValueEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null", NullValue(), NullValue(), true},
		{"string", StringValue("x"), StringValue("x"), true},
		{"string diff", StringValue("x"), StringValue("y"), false},
		{"number", NumberValue(2), NumberValue(2), true},
		{"bool vs number", BoolValue(true), NumberValue(1), false},
		{"list order", ListValue(StringValue("a"), StringValue("b")), ListValue(StringValue("b"), StringValue("a")), false},
		{"nested map", MapValue(map[string]Value{"k": ListValue(NumberValue(1))}), MapValue(map[string]Value{"k": ListValue(NumberValue(1))}), true},
		{"map extra key", MapValue(map[string]Value{"k": NumberValue(1)}), MapValue(map[string]Value{"k": NumberValue(1), "j": NumberValue(2)}), false},
	}
	for _, tc := range cases {
		if got := tc.a.Equal(tc.b); got != tc.want {
			t.Errorf("%s: Equal = %v, want %v", tc.name, got, tc.want)
		}
		if got := tc.b.Equal(tc.a); got != tc.want {
			t.Errorf("%s (reversed): Equal = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	raw := `{"s":"x","n":2.5,"b":true,"nil":null,"l":[1,"two",false],"m":{"inner":[{"deep":3}]}}`
	var c Conditions
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c["s"].Kind != KindString || c["s"].Str != "x" {
		t.Fatalf("s = %+v", c["s"])
	}
	if c["n"].Kind != KindNumber || c["n"].Num != 2.5 {
		t.Fatalf("n = %+v", c["n"])
	}
	if c["nil"].Kind != KindNull {
		t.Fatalf("nil = %+v", c["nil"])
	}
	if c["l"].Kind != KindList || len(c["l"].List) != 3 {
		t.Fatalf("l = %+v", c["l"])
	}

	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again Conditions
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	for k, v := range c {
		if !v.Equal(again[k]) {
			t.Fatalf("key %q changed across round trip: %+v vs %+v", k, v, again[k])
		}
	}
}

func TestConditionsMerge(t *testing.T) {
	base := Conditions{"a": NumberValue(1), "b": StringValue("base")}
	overlay := Conditions{"b": StringValue("overlay"), "c": BoolValue(true)}

	merged := base.Merge(overlay)
	if len(merged) != 3 {
		t.Fatalf("merged = %+v, want 3 keys", merged)
	}
	if !merged["b"].Equal(StringValue("overlay")) {
		t.Fatalf("overlay must win on conflicting keys, got %+v", merged["b"])
	}
	if !base["b"].Equal(StringValue("base")) {
		t.Fatal("merge must not mutate the receiver")
	}
	if got := Conditions(nil).Merge(nil); got != nil {
		t.Fatalf("nil merge nil = %+v, want nil", got)
	}
}

func TestConditionsSQLRoundTrip(t *testing.T) {
	c := Conditions{"region": StringValue("emea"), "tier": NumberValue(2)}
	v, err := c.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	var back Conditions
	if err := back.Scan(v); err != nil {
		t.Fatalf("scan: %v", err)
	}
	for k, val := range c {
		if !val.Equal(back[k]) {
			t.Fatalf("key %q lost in SQL round trip", k)
		}
	}

	var empty Conditions
	if err := empty.Scan(nil); err != nil || empty != nil {
		t.Fatalf("NULL scan: got %+v, %v; want nil map", empty, err)
	}
	if v, err := Conditions(nil).Value(); err != nil || v != nil {
		t.Fatalf("nil value: got %v, %v; want NULL", v, err)
	}
}

func TestValueUnmarshalRejectsGarbage(t *testing.T) {
	var v Value
	if err := v.UnmarshalJSON([]byte(`{"unterminated`)); err == nil {
		t.Fatal("want error for malformed JSON")
	}
}
