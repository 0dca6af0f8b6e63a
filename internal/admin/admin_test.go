package admin

import "testing"

func TestFormatCPUPercent(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    string
	}{
		{"normal sample", []float64{42.1234}, "42.12%"},
		{"zero sample", []float64{0}, "0.00%"},
		{"empty reading", nil, "unavailable"},
	}

	for _, tt := range tests {
		if got := formatCPUPercent(tt.samples); got != tt.want {
			t.Errorf("%s: formatCPUPercent(%v) = %q, want %q", tt.name, tt.samples, got, tt.want)
		}
	}
}
