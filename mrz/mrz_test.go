package mrz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testLine1 = "IDROUPOPESCU<<ION<ANDREI<<<<<<<<<<<<"
	testLine2 = "AR123456<4ROU8001015M300101118001012"
)

func TestParseWellFormedLines(t *testing.T) {
	record := Parse(testLine1 + "\n" + testLine2)
	require.NotNil(t, record)

	require.Equal(t, "ID", record.DocumentType)
	require.Equal(t, "ROU", record.CountryCode)
	require.Equal(t, "POPESCU", record.Surname)
	require.Equal(t, "ION ANDREI", record.GivenNames)
	require.Equal(t, "AR123456", record.DocumentNumber)
	require.Equal(t, "ROU", record.Nationality)
	require.Equal(t, "01.01.1980", record.DateOfBirth)
	require.Equal(t, "M", record.Sex)
	require.Equal(t, "01.01.2030", record.ExpiryDate)
	require.Equal(t, "1800101", record.PersonalNumber)
	require.True(t, record.Verified)
}

func TestParseNormalization(t *testing.T) {
	t.Run("lowercase input is uppercased", func(t *testing.T) {
		record := Parse("idroupopescu<<ion<andrei<<<<<<<<<<<<\n" + testLine2)
		require.NotNil(t, record)
		require.Equal(t, "POPESCU", record.Surname)
		require.True(t, record.Verified)
	})

	t.Run("surrounding document text is skipped", func(t *testing.T) {
		text := "ROMANIA CARTE DE IDENTITATE\nSERIA AR NR 123456\n\n" +
			testLine1 + "\r\n" + testLine2 + "\n"
		record := Parse(text)
		require.NotNil(t, record)
		require.Equal(t, "AR123456", record.DocumentNumber)
	})

	t.Run("leading and trailing spaces are trimmed", func(t *testing.T) {
		record := Parse("  " + testLine1 + "  \n " + testLine2 + " ")
		require.NotNil(t, record)
		require.True(t, record.Verified)
	})
}

func TestParseCenturyHeuristic(t *testing.T) {
	// Year 51 reads as 1951, year 50 as 2050. Deliberately independent of
	// the CNP century rule.
	line2 := "AR123456<4ROU5101015M500101118001012"
	record := Parse(testLine1 + "\n" + line2)
	require.NotNil(t, record)
	require.Equal(t, "01.01.1951", record.DateOfBirth)
	require.Equal(t, "01.01.2050", record.ExpiryDate)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		require.Nil(t, Parse(""))
	})

	t.Run("single candidate line", func(t *testing.T) {
		require.Nil(t, Parse(testLine1))
	})

	t.Run("lines shorter than 36 characters", func(t *testing.T) {
		require.Nil(t, Parse("IDROUPOPESCU<<ION\nAR123456<4ROU80"))
	})

	t.Run("too few machine readable characters", func(t *testing.T) {
		text := "DOMICILIU / ADRESSE / ADDRESS: STR. EXEMPLU NR. 10\n" +
			"CETATENIE / NATIONALITE / NATIONALITY: ROMANA / ROU"
		require.Nil(t, Parse(text))
	})
}

func TestParseStructuralFlagOnly(t *testing.T) {
	t.Run("non-ID document type is parsed but unverified", func(t *testing.T) {
		record := Parse("PAROUPOPESCU<<ION<ANDREI<<<<<<<<<<<<\n" + testLine2)
		require.NotNil(t, record)
		require.Equal(t, "PA", record.DocumentType)
		require.False(t, record.Verified)
	})

	t.Run("foreign country code is parsed but unverified", func(t *testing.T) {
		record := Parse("IDHUNPOPESCU<<ION<ANDREI<<<<<<<<<<<<\n" + testLine2)
		require.NotNil(t, record)
		require.False(t, record.Verified)
	})

	t.Run("overlong lines are parsed but unverified", func(t *testing.T) {
		record := Parse(testLine1 + "<<<<\n" + testLine2 + "<<<<")
		require.NotNil(t, record)
		require.False(t, record.Verified)
	})
}

func TestParseSurnameOnly(t *testing.T) {
	// No double filler after the surname, so there are no given names.
	line1 := "IDROUPOPESCU<<<<<<<<<<<<<<<<<<<<<<<<"
	record := Parse(line1 + "\n" + testLine2)
	require.NotNil(t, record)
	require.Equal(t, "POPESCU", record.Surname)
	require.Equal(t, "", record.GivenNames)
}
