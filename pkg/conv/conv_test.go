package conv

import (
	"testing"
	"time"
)

func TestConfigGet(t *testing.T) {
	m := map[string]any{
		"name":      "geo",
		"enabled":   true,
		"limit":     10,
		"limit_f":   float64(20),
		"threshold": 1,
		"weight":    0.5,
	}

	if got := ConfigGet(m, "name", ""); got != "geo" {
		t.Errorf("ConfigGet(name) = %q", got)
	}
	if got := ConfigGet(m, "enabled", false); !got {
		t.Error("ConfigGet(enabled) = false")
	}
	if got := ConfigGet(m, "limit", "x"); got != "x" {
		t.Errorf("type mismatch should return default, got %q", got)
	}
	if got := ConfigGet[string](nil, "name", "d"); got != "d" {
		t.Errorf("nil map should return default, got %q", got)
	}
	if got := ConfigGetInt64(m, "limit", 0); got != 10 {
		t.Errorf("ConfigGetInt64(limit) = %d", got)
	}
	if got := ConfigGetInt64(m, "limit_f", 0); got != 20 {
		t.Errorf("ConfigGetInt64(limit_f) = %d", got)
	}
	if got := ConfigGetInt64(m, "missing", 7); got != 7 {
		t.Errorf("ConfigGetInt64(missing) = %d", got)
	}
	if got := ConfigGetFloat64(m, "threshold", 0); got != 1 {
		t.Errorf("ConfigGetFloat64(threshold) = %v", got)
	}
	if got := ConfigGetFloat64(m, "weight", 0); got != 0.5 {
		t.Errorf("ConfigGetFloat64(weight) = %v", got)
	}
	if got := ConfigGetFloat64(m, "name", 0.3); got != 0.3 {
		t.Errorf("ConfigGetFloat64(name) = %v", got)
	}
}

func TestConfigGetDuration(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    time.Duration
		wantErr bool
	}{
		{name: "string", value: "500ms", want: 500 * time.Millisecond},
		{name: "seconds int", value: 2, want: 2 * time.Second},
		{name: "seconds float", value: 1.5, want: 1500 * time.Millisecond},
		{name: "bad string", value: "soon", wantErr: true},
		{name: "bad type", value: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfigGetDuration(map[string]any{"budget": tt.value}, "budget", time.Second)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	got, err := ConfigGetDuration(nil, "budget", time.Second)
	if err != nil || got != time.Second {
		t.Errorf("nil map = %v, %v", got, err)
	}
}

func TestSliceAnyToString(t *testing.T) {
	got := SliceAnyToString([]any{"a", float64(12), true, 3})
	want := []string{"a", "12", "3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if SliceAnyToString("x") != nil {
		t.Error("non-slice should yield nil")
	}
}
