package region

import (
	"testing"
	"time"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		wantCode string
		wantErr  bool
	}{
		{"MB", "MB", false},
		{"mn", "MN", false},
		{"xsmt", "MT", false},
		{" XSMB ", "MB", false},
		{"MX", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Lookup(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Lookup(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if r.Code != tt.wantCode {
				t.Errorf("Lookup(%q) = %q, want %q", tt.name, r.Code, tt.wantCode)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr bool
	}{
		{"empty selects all", nil, []string{"MB", "MN", "MT"}, false},
		{"all keyword", []string{"all"}, []string{"MB", "MN", "MT"}, false},
		{"comma list", []string{"mt,mn"}, []string{"MT", "MN"}, false},
		{"duplicates", []string{"MB", "xsmb"}, []string{"MB"}, false},
		{"unknown", []string{"MB", "ZZ"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regions, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if len(regions) != len(tt.want) {
				t.Fatalf("Parse(%v) returned %d regions, want %d", tt.in, len(regions), len(tt.want))
			}
			for i, r := range regions {
				if r.Code != tt.want[i] {
					t.Errorf("regions[%d] = %s, want %s", i, r.Code, tt.want[i])
				}
			}
		})
	}
}

func TestLatestAvailable(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)

	tests := []struct {
		name   string
		region Region
		now    time.Time
		want   draw.Date
	}{
		{"MN before release", MN, time.Date(2024, 3, 15, 16, 0, 0, 0, loc), draw.NewDate(2024, 3, 14)},
		{"MN after release", MN, time.Date(2024, 3, 15, 16, 40, 0, 0, loc), draw.NewDate(2024, 3, 15)},
		{"MB between MN and MB release", MB, time.Date(2024, 3, 15, 17, 0, 0, 0, loc), draw.NewDate(2024, 3, 14)},
		{"UTC clock converted", MT, time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC), draw.NewDate(2024, 3, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.region.LatestAvailable(tt.now, loc); got != tt.want {
				t.Errorf("LatestAvailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPath(t *testing.T) {
	if got := MN.Path(draw.NewDate(2024, 3, 5)); got != "xsmn-05-03-2024.html" {
		t.Errorf("Path() = %q, want xsmn-05-03-2024.html", got)
	}
}

func TestSchemas(t *testing.T) {
	if MB.Schema.Kind != draw.SingleDraw {
		t.Error("MB should be single-draw")
	}
	if MN.Schema.Kind != draw.MultiProvince || MT.Schema.Kind != draw.MultiProvince {
		t.Error("MN and MT should be multi-province")
	}
}
