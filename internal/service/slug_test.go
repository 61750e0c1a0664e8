package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Pantai Kuta", "pantai-kuta"},
		{"  Tanah   Lot  ", "tanah-lot"},
		{"Ubud's Rice Terraces!", "ubud-s-rice-terraces"},
		{"UPPER case", "upper-case"},
		{"---", ""},
		{"Café & Bar", "caf-bar"},
		{"already-slugged", "already-slugged"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), "input %q", tc.in)
	}
}
