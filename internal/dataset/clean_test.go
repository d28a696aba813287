package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanValue(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
		want string
	}{
		{name: "gb suffix", in: "128GB", ok: true, want: "128"},
		{name: "spaced gb", in: "64 GB", ok: true, want: "64"},
		{name: "lower mah", in: "5000mah", ok: true, want: "5000"},
		{name: "mixed case mah", in: "4000 mAh", ok: true, want: "4000"},
		{name: "camera list", in: "12MP + 64MP + 12MP", ok: true, want: "12 + 64 + 12"},
		{name: "currency and comma", in: "$1,299", ok: true, want: "1299"},
		{name: "inch quote", in: `6.5"`, ok: true, want: "6.5"},
		{name: "untouched text", in: "Pixel 7 Pro", ok: true, want: "Pixel 7 Pro"},
		{name: "malformed number passes", in: "12..5x", ok: true, want: "12..5x"},
		{name: "surrounding space", in: "  8GB  ", ok: true, want: "8"},
		{name: "missing", in: "", ok: false, want: ""},
		{name: "null marker", in: "NaN", ok: true, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanValue(tt.in, tt.ok))
		})
	}
}

func TestRawValue(t *testing.T) {
	assert.Equal(t, "", RawValue("anything", false))
	assert.Equal(t, "", RawValue("nan", true))
	assert.Equal(t, "128GB", RawValue("128GB", true))
}

func TestNormalizeColumn(t *testing.T) {
	tests := map[string]string{
		"Brand":                  "brand",
		" Screen Size (inches) ": "screen_size_inches",
		"Camera (MP)":            "camera_mp",
		"Battery Capacity (mAh)": "battery_capacity_mah",
		"Price ($)":              "price_$",
		"Storage ":               "storage",
		"No. of SIMs":            "no_of_sims",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeColumn(in), "column %q", in)
	}
}
