package verify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go-document-verifier/cnp"
)

// validCode passes checksum validation, invalidCode differs only in its
// check digit.
const (
	validCode   = "1800101400120"
	invalidCode = "1800101400123"
)

func TestExactMatches(t *testing.T) {
	require.Equal(t, []string{validCode}, ExactMatches("CNP "+validCode+" ROU"))
	require.Equal(t, []string{invalidCode, validCode},
		ExactMatches(invalidCode+" text "+validCode))

	t.Run("no standalone run", func(t *testing.T) {
		require.Empty(t, ExactMatches("18001014001"))
		require.Empty(t, ExactMatches("stuck18001014001206"))
	})
}

func TestLabelledMatches(t *testing.T) {
	t.Run("clean label", func(t *testing.T) {
		require.Equal(t, []string{validCode}, LabelledMatches("CNP: "+validCode))
	})

	t.Run("garbled labels", func(t *testing.T) {
		for _, label := range []string{"CRP", "CNF", "CUP", "CNR", "cnp"} {
			require.Equal(t, []string{validCode}, LabelledMatches(label+" "+validCode), label)
		}
	})

	t.Run("digits broken up by OCR", func(t *testing.T) {
		require.Equal(t, []string{validCode},
			LabelledMatches("CNP. 18 00-10.14 00 120"))
	})

	t.Run("too few digits after label", func(t *testing.T) {
		require.Empty(t, LabelledMatches("CNP: 1800101"))
	})

	t.Run("extra digits truncated to thirteen", func(t *testing.T) {
		require.Equal(t, []string{validCode}, LabelledMatches("CNP: "+validCode+"99"))
	})
}

func TestWindowMatches(t *testing.T) {
	t.Run("split across runs", func(t *testing.T) {
		require.Contains(t, WindowMatches("seria 1800101 nr 400120"), validCode)
	})

	t.Run("embedded in longer run", func(t *testing.T) {
		require.Contains(t, WindowMatches("9"+validCode+"7"), validCode)
	})

	t.Run("not enough digits", func(t *testing.T) {
		require.Empty(t, WindowMatches("seria 1234 nr 5678"))
	})
}

func TestFirstValidOrdering(t *testing.T) {
	t.Run("first strategy fails, second succeeds", func(t *testing.T) {
		// The standalone run is checksum-invalid; only the label-adjacent
		// spaced digits validate.
		text := "SERIA " + invalidCode + "\nCNP 18 00 10 14 00 120"

		code, ok := FirstValid(text, cnp.Validate, ExactMatches, LabelledMatches, WindowMatches)
		require.True(t, ok)
		require.Equal(t, validCode, code)
	})

	t.Run("later strategies not consulted after a hit", func(t *testing.T) {
		consulted := false
		hit := func(string) []string { return []string{validCode} }
		tracker := func(string) []string {
			consulted = true
			return nil
		}

		code, ok := FirstValid("ignored", cnp.Validate, hit, CandidateStrategy(tracker))
		require.True(t, ok)
		require.Equal(t, validCode, code)
		require.False(t, consulted)
	})

	t.Run("invalid candidates from every strategy", func(t *testing.T) {
		_, ok := FirstValid(invalidCode, cnp.Validate, ExactMatches, LabelledMatches, WindowMatches)
		require.False(t, ok)
	})
}

func TestNormalizeText(t *testing.T) {
	require.Equal(t, "Stiinta si Tara", NormalizeText("Știință și Țară"))
	require.Equal(t, "CNP 1800101400120", NormalizeText("CNP 1800101400120"))
	require.Equal(t, "", NormalizeText(""))
}
