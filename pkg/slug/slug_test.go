package slug_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldops/tenancy/pkg/slug"
)

var label = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

func TestMake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Acme", "acme"},
		{"spaces", "Acme Roofing Co", "acme-roofing-co"},
		{"diacritics", "Zürich Plumbing", "zurich-plumbing"},
		{"non-decomposing letters", "Straße Bau Ørsted", "strasse-bau-orsted"},
		{"ampersand", "Heat & Air", "heat-and-air"},
		{"collapses separators", "  --Acme!!  Co.-- ", "acme-co"},
		{"digits", "24/7 Electric", "24-7-electric"},
		{"nothing usable", "!!!", ""},
		{"non latin dropped", "東京 Cleaners", "cleaners"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, slug.Make(tt.in))
		})
	}
}

func TestMake_Length(t *testing.T) {
	t.Parallel()

	t.Run("defaults to dns label length", func(t *testing.T) {
		t.Parallel()
		got := slug.Make(strings.Repeat("abc ", 40))
		assert.LessOrEqual(t, len(got), slug.MaxLabelLength)
		assert.Regexp(t, label, got)
	})

	t.Run("custom max length never ends with hyphen", func(t *testing.T) {
		t.Parallel()
		got := slug.Make("acme roofing", slug.MaxLength(5))
		assert.Equal(t, "acme", got)
	})
}

func TestMake_Suffix(t *testing.T) {
	t.Parallel()

	t.Run("appends random suffix", func(t *testing.T) {
		t.Parallel()
		a := slug.Make("Acme", slug.WithSuffix(6))
		b := slug.Make("Acme", slug.WithSuffix(6))
		assert.Regexp(t, `^acme-[a-z0-9]{6}$`, a)
		assert.NotEqual(t, a, b)
	})

	t.Run("fits within max length", func(t *testing.T) {
		t.Parallel()
		got := slug.Make(strings.Repeat("x", 100), slug.WithSuffix(4))
		assert.LessOrEqual(t, len(got), slug.MaxLabelLength)
		assert.Regexp(t, label, got)
	})

	t.Run("suffix only when name is empty", func(t *testing.T) {
		t.Parallel()
		assert.Regexp(t, `^[a-z0-9]{4}$`, slug.Make("!!!", slug.WithSuffix(4)))
	})
}
