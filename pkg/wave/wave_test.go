package wave

import (
	"encoding/json"
	"math"
	"testing"
)

func TestHeightZeroAmplitude(t *testing.T) {
	f := NewField([]Source{{X: 0, Y: 0, Power: 1}}, 0, 0.3, 3)
	for _, p := range [][2]float64{{0, 0}, {10, -4}, {-99, 3}} {
		if got := f.Height(p[0], p[1]); got != 0 {
			t.Errorf("Height(%v) = %v, want 0", p, got)
		}
	}
}

func TestHeightSingleRing(t *testing.T) {
	f := NewField([]Source{{X: 0, Y: 0, Power: 2}}, 1.5, 0.25, 1)
	x, y := 3.0, 4.0
	want := 1.5 * 2 * math.Sin(5*0.25)
	if got := f.Height(x, y); math.Abs(got-want) > 1e-12 {
		t.Errorf("Height(3,4) = %v, want %v", got, want)
	}
}

func TestHeightAveragesRingsAndSources(t *testing.T) {
	sources := []Source{{X: 10, Y: 0, Power: 1}, {X: -5, Y: 5, Power: 0.5}}
	f := NewField(sources, 2, 0.3, 3)

	x, y := 1.0, 2.0
	var want float64
	for _, s := range sources {
		d := math.Hypot(x-s.X, y-s.Y)
		for w := 0; w < 3; w++ {
			want += 2 * s.Power * math.Sin(d*0.3+float64(w)*math.Pi/3)
		}
	}
	want /= 6
	if got := f.Height(x, y); math.Abs(got-want) > 1e-12 {
		t.Errorf("Height = %v, want %v", got, want)
	}
}

func TestHeightRadialSymmetry(t *testing.T) {
	f := NewField([]Source{{Power: 1}}, 3, 0.4, 1)
	const r = 37.5
	ref := f.Height(r, 0)
	for deg := 0; deg < 360; deg += 15 {
		a := float64(deg) * math.Pi / 180
		if got := f.Height(r*math.Cos(a), r*math.Sin(a)); math.Abs(got-ref) > 1e-9 {
			t.Errorf("angle %d: height %v, want %v", deg, got, ref)
		}
	}
}

func TestNewFieldCopiesSources(t *testing.T) {
	sources := []Source{{X: 1, Y: 1, Power: 1}}
	f := NewField(sources, 1, 1, 1)
	before := f.Height(0, 0)
	sources[0].X = 50
	if after := f.Height(0, 0); after != before {
		t.Errorf("field changed after caller mutation: %v -> %v", before, after)
	}
}

func TestNilAndEmptyField(t *testing.T) {
	var f *Field
	if f.Height(1, 1) != 0 {
		t.Error("nil field should evaluate to 0")
	}
	if NewField(nil, 1, 1, 1).Height(1, 1) != 0 {
		t.Error("field without sources should evaluate to 0")
	}
}

func TestSourceJSONDefaultPower(t *testing.T) {
	tests := []struct {
		in   string
		want Source
	}{
		{`{"x": 3, "y": -4}`, Source{X: 3, Y: -4, Power: 1}},
		{`{"x": 3, "y": -4, "power": 0.5}`, Source{X: 3, Y: -4, Power: 0.5}},
		{`{"x": 3, "y": -4, "power": 0}`, Source{X: 3, Y: -4, Power: 0}},
	}
	for _, tt := range tests {
		var got Source
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	var list []Source
	if err := json.Unmarshal([]byte(`[{"x": 1, "y": 2}]`), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Power != 1 {
		t.Errorf("list = %+v, want one source with power 1", list)
	}
}
