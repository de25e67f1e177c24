package recommend

import (
	"errors"
	"testing"

	"github.com/rushteam/lastcall/core"
)

func TestParseGeo(t *testing.T) {
	tests := []struct {
		name    string
		lat     string
		lng     string
		radius  string
		want    *core.GeoQuery
		wantErr bool
	}{
		{name: "no coordinates", want: nil},
		{name: "radius without coordinates ignored", radius: "3", want: nil},
		{name: "missing radius uses max", lat: "37.5", lng: "127.0", want: &core.GeoQuery{Lat: 37.5, Lng: 127.0, RadiusKm: 5}},
		{name: "radius within max", lat: "37.5", lng: "127.0", radius: "2.5", want: &core.GeoQuery{Lat: 37.5, Lng: 127.0, RadiusKm: 2.5}},
		{name: "radius clamped", lat: "37.5", lng: "127.0", radius: "50", want: &core.GeoQuery{Lat: 37.5, Lng: 127.0, RadiusKm: 5}},
		{name: "whitespace trimmed", lat: " 37.5 ", lng: "127.0 ", want: &core.GeoQuery{Lat: 37.5, Lng: 127.0, RadiusKm: 5}},
		{name: "lat only", lat: "37.5", wantErr: true},
		{name: "lng only", lng: "127.0", wantErr: true},
		{name: "malformed lat", lat: "north", lng: "127.0", wantErr: true},
		{name: "nan lng", lat: "37.5", lng: "NaN", wantErr: true},
		{name: "lat out of range", lat: "91", lng: "127.0", wantErr: true},
		{name: "lng out of range", lat: "37.5", lng: "-181", wantErr: true},
		{name: "zero radius", lat: "37.5", lng: "127.0", radius: "0", wantErr: true},
		{name: "negative radius", lat: "37.5", lng: "127.0", radius: "-1", wantErr: true},
		{name: "malformed radius", lat: "37.5", lng: "127.0", radius: "far", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGeo(tt.lat, tt.lng, tt.radius, 5)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidGeo) || !core.IsInvalidInput(err) {
					t.Fatalf("ParseGeo() error = %v, want ErrInvalidGeo", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGeo() error = %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParseGeo() = %+v, want %+v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("ParseGeo() = %+v, want %+v", *got, *tt.want)
			}
		})
	}
}
