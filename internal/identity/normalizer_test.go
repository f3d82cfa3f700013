package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gavel/internal/identity/jurisdiction"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantKey string
	}{
		{"plain name", "Jane Smith", "jane smith"},
		{"honorific stripped", "Hon. Jane Smith", "jane smith"},
		{"judge title stripped", "Judge Jane Smith", "jane smith"},
		{"chief judge stripped", "Chief Judge Jane Smith", "jane smith"},
		{"middle initial dropped", "Jane A. Smith", "jane smith"},
		{"middle initial with honorific", "Hon. Jane A. Smith", "jane smith"},
		{"full middle name kept", "Jane Anne Smith", "jane anne smith"},
		{"suffix stripped", "Robert Garcia Jr.", "robert garcia"},
		{"roman numeral suffix stripped", "Robert Garcia III", "robert garcia"},
		{"uppercase collapsed", "JANE SMITH", "jane smith"},
		{"punctuation stripped", "O'Brien, Patrick", "o brien patrick"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, _ := NormalizeName(tt.raw)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestNormalizeNameEdgeCases(t *testing.T) {
	t.Run("empty input yields empty keys", func(t *testing.T) {
		key, fuzzy := NormalizeName("")
		assert.Empty(t, key)
		assert.Empty(t, fuzzy)
	})

	t.Run("honorific alone is kept as a name", func(t *testing.T) {
		// "Judge" as the only token cannot be a title with nothing after it.
		key, _ := NormalizeName("Judge")
		assert.Equal(t, "judge", key)
	})

	t.Run("same person with and without middle initial collide", func(t *testing.T) {
		a, _ := NormalizeName("Jane A. Smith")
		b, _ := NormalizeName("Jane Smith")
		assert.Equal(t, a, b)
	})

	t.Run("fuzzy key ignores middle names entirely", func(t *testing.T) {
		_, a := NormalizeName("Jane Anne Smith")
		_, b := NormalizeName("Jane Smith")
		assert.Equal(t, a, b)
	})
}

func TestSoundex(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Robert", "R163"},
		{"Rupert", "R163"},
		{"Smith", "S530"},
		{"Smyth", "S530"},
		{"Ashcraft", "A261"},
		{"Tymczak", "T522"},
		{"Pfister", "P236"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Soundex(tt.in), "Soundex(%q)", tt.in)
	}
}

func TestSimilarity(t *testing.T) {
	t.Run("identical strings score 1", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("jane smith", "jane smith"))
	})

	t.Run("single substitution in a long name scores high", func(t *testing.T) {
		s := Similarity("jane smith", "jane smyth")
		assert.Greater(t, s, 0.85)
		assert.Less(t, s, 1.0)
	})

	t.Run("unrelated names score low", func(t *testing.T) {
		assert.Less(t, Similarity("jane smith", "robert garcia"), 0.4)
	})

	t.Run("empty against empty scores 1", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("", ""))
	})
}

func TestNormalizerJurisdiction(t *testing.T) {
	h := jurisdiction.New(
		[]string{"ca/los-angeles/superior"},
		map[string]string{"Los Angeles County Superior Court": "ca/los-angeles/superior"},
	)
	n := New(h)

	t.Run("alias resolves to canonical node", func(t *testing.T) {
		got := n.Normalize("Hon. Jane Smith", "Los Angeles County Superior Court")
		require.Equal(t, "jane smith", got.NameKey)
		assert.Equal(t, "ca/los-angeles/superior", got.JurisdictionKey)
	})

	t.Run("unknown jurisdiction yields the sentinel", func(t *testing.T) {
		got := n.Normalize("Jane Smith", "Somewhere Else Entirely")
		assert.Equal(t, jurisdiction.Unresolved, got.JurisdictionKey)
	})
}
