package reqparams

import "testing"

func getterFrom(m map[string]string) Getter {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestParseDefaults(t *testing.T) {
	q := Parse(getterFrom(nil))
	if q.Quality != defaultQuality {
		t.Errorf("quality = %d, want %d", q.Quality, defaultQuality)
	}
	if q.RGB != defaultRGB {
		t.Errorf("rgb = %+v, want %+v", q.RGB, defaultRGB)
	}
	if !q.AsIs() {
		t.Error("expected AsIs with no params")
	}
}

func TestUnsupportedScaleSize(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]string
		want bool
	}{
		{"both in range", map[string]string{"w": "300", "h": "200"}, false},
		{"w too small", map[string]string{"w": "10", "h": "200"}, true},
		{"w too large", map[string]string{"w": "9999", "h": "200"}, true},
		{"h too large asymmetry", map[string]string{"w": "300", "h": "1500"}, true},
		{"h at 1000 ok", map[string]string{"w": "300", "h": "1000"}, false},
		{"w at 2000 ok", map[string]string{"w": "2000", "h": "200"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Parse(getterFrom(tt.m))
			if got := q.UnsupportedScaleSize(); got != tt.want {
				t.Errorf("UnsupportedScaleSize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBlurClamp(t *testing.T) {
	tests := []struct {
		in   string
		want uint8
	}{
		{"0", 0},
		{"1", 10},
		{"15", 15},
		{"99", 20},
	}
	for _, tt := range tests {
		q := Parse(getterFrom(map[string]string{"blur": tt.in}))
		if q.Blur != tt.want {
			t.Errorf("blur(%q) = %d, want %d", tt.in, q.Blur, tt.want)
		}
	}
}

func TestInverseIgnoredWhenGrayscale(t *testing.T) {
	q := Parse(getterFrom(map[string]string{"grayscale": "true", "inverse": "true"}))
	if q.Inverse {
		t.Error("inverse should be ignored when grayscale is set")
	}
}

func TestMalformedRGBFallsBackToDefault(t *testing.T) {
	q := Parse(getterFrom(map[string]string{"rgb": "not,a,color,value"}))
	if q.RGB != defaultRGB {
		t.Errorf("rgb = %+v, want default", q.RGB)
	}
}

func TestAsIsFalseWithDimensions(t *testing.T) {
	q := Parse(getterFrom(map[string]string{"w": "100", "h": "100"}))
	if q.AsIs() {
		t.Error("expected AsIs=false when dimensions present")
	}
}
