package cryptox

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateNumericCode(t *testing.T) {
	t.Parallel()

	t.Run("always six digits wide", func(t *testing.T) {
		for range 200 {
			code, err := GenerateNumericCode(6)
			require.NoError(t, err)
			require.Len(t, code, 6)

			n, err := strconv.Atoi(code)
			require.NoError(t, err)
			require.GreaterOrEqual(t, n, 100000)
			require.LessOrEqual(t, n, 999999)
		}
	})

	t.Run("rejects invalid widths", func(t *testing.T) {
		_, err := GenerateNumericCode(0)
		require.Error(t, err)

		_, err = GenerateNumericCode(19)
		require.Error(t, err)
	})
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	t.Run("deterministic", func(t *testing.T) {
		require.Equal(t, FingerprintToken("482913"), FingerprintToken("482913"))
	})

	t.Run("distinct inputs produce distinct fingerprints", func(t *testing.T) {
		require.NotEqual(t, FingerprintToken("482913"), FingerprintToken("482914"))
	})

	t.Run("43 char base64url output", func(t *testing.T) {
		require.Len(t, FingerprintToken("anything"), 43)
	})
}
