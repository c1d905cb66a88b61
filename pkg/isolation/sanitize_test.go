package isolation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/isolation"
)

func TestSanitizeIdentifier(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain slug", "acme", "acme"},
		{"uppercase is lowered", "AcmeCorp", "acmecorp"},
		{"hyphens become underscores", "acme-corp", "acme_corp"},
		{"digit-initial gets prefix", "1acme", "t_1acme"},
		{"underscore-initial gets prefix", "_acme", "t__acme"},
		{"unicode stripped", "acmé", "acm"},
		{"sql injection stripped", `acme"; DROP TABLE tenants; --`, "acmedroptabletenants__"},
		{"quoted injection stripped", "acme'||'x", "acmex"},
		{"semicolons and spaces stripped", "a b;c", "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := isolation.SanitizeIdentifier(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("truncated to identifier limit", func(t *testing.T) {
		t.Parallel()

		got, err := isolation.SanitizeIdentifier(strings.Repeat("a", 100))
		require.NoError(t, err)
		assert.Len(t, got, 63)
	})

	t.Run("empty input rejected", func(t *testing.T) {
		t.Parallel()

		_, err := isolation.SanitizeIdentifier("")
		assert.ErrorIs(t, err, isolation.ErrInvalidIdentifier)
	})

	t.Run("fully invalid input rejected", func(t *testing.T) {
		t.Parallel()

		_, err := isolation.SanitizeIdentifier("日本語")
		assert.ErrorIs(t, err, isolation.ErrInvalidIdentifier)
	})
}
