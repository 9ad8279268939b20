package bot

import (
	"reflect"
	"testing"
)

func TestResolveID(t *testing.T) {
	known := []string{"viral_loops", "brand_voice", "lean_budgeting", "lean_operations"}
	tests := []struct {
		in     string
		want   string
		ok     bool
		sugg []string
	}{
		{in: "viral_loops", want: "viral_loops", ok: true},
		{in: "Viral Loops", want: "viral_loops", ok: true},
		{in: "brand-voice", want: "brand_voice", ok: true},
		{in: "bra", want: "brand_voice", ok: true},
		{in: "virl_loops", want: "viral_loops", ok: true},
		{in: "lean", ok: false, sugg: []string{"lean_budgeting", "lean_operations"}},
		{in: "", ok: false},
	}
	for _, tt := range tests {
		got, sugg, ok := resolveID(tt.in, known)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("resolveID(%q) got %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
		}
		if tt.sugg != nil && !reflect.DeepEqual(sugg, tt.sugg) {
			t.Fatalf("resolveID(%q) suggestions got %v want %v", tt.in, sugg, tt.sugg)
		}
	}
}

func TestResolveIDSuggestsWhenNothingFits(t *testing.T) {
	_, sugg, ok := resolveID("zzzzzz", []string{"a1", "b2", "c3", "d4"})
	if ok || len(sugg) != 3 {
		t.Fatalf("got ok=%v suggestions=%v", ok, sugg)
	}
}

func TestLimiterSetIsPerUser(t *testing.T) {
	l := newLimiterSet(0.001, 2)
	for i := 0; i < 2; i++ {
		if !l.Allow("u1") {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if l.Allow("u1") {
		t.Fatalf("third call should be limited")
	}
	if !l.Allow("u2") {
		t.Fatalf("other users keep their own budget")
	}
}
