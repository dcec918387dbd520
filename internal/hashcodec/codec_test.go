package hashcodec_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/serroba/shortlink/internal/hashcodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlphabet(t *testing.T) {
	seen := make(map[rune]struct{})

	for _, r := range hashcodec.Alphabet {
		seen[r] = struct{}{}

		ok := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '-' || r == '_'
		assert.True(t, ok, "unexpected alphabet character %q", r)
	}

	assert.Len(t, seen, len(hashcodec.Alphabet), "alphabet has duplicates")
	assert.Len(t, hashcodec.Alphabet, 64)
}

func TestFold(t *testing.T) {
	cases := map[string]uint64{
		"6ba7b810-9dad-41d1-80b4-00c04fd430c8": 11034431310,
		"f47ac10b-58cc-4372-a567-0e02b2c3d479": 14350169978,
		"00000000-0000-4000-8000-000000000000": 312,
		"ffffffff-ffff-4fff-bfff-ffffffffffff": 767054856825,
		"123e4567-e89b-42d3-a456-426614174000": 4779346610,
	}

	for s, want := range cases {
		t.Run(s, func(t *testing.T) {
			assert.Equal(t, want, hashcodec.Fold(uuid.MustParse(s)))
		})
	}

	t.Run("nil uuid is still non-zero", func(t *testing.T) {
		assert.Equal(t, uint64(24+24+24), hashcodec.Fold(uuid.Nil))
	})
}

func TestEncode(t *testing.T) {
	cases := map[string]string{
		"6ba7b810-9dad-41d1-80b4-00c04fd430c8": "e4_AvF",
		"f47ac10b-58cc-4372-a567-0e02b2c3d479": "EfD9qZ",
		"00000000-0000-4000-8000-000000000000": "8Q",
		"ffffffff-ffff-4fff-bfff-ffffffffffff": "YpQaLFh",
		"123e4567-e89b-42d3-a456-426614174000": "tkN2zQ",
	}

	for s, want := range cases {
		t.Run(s, func(t *testing.T) {
			assert.Equal(t, want, hashcodec.Encode(uuid.MustParse(s)))
		})
	}

	t.Run("is deterministic", func(t *testing.T) {
		id := uuid.New()

		assert.Equal(t, hashcodec.Encode(id), hashcodec.Encode(id))
	})

	t.Run("random ids produce non-empty aliases from the alphabet", func(t *testing.T) {
		for range 500 {
			alias := hashcodec.Encode(uuid.New())

			require.NotEmpty(t, alias)
			assert.True(t, hashcodec.Valid(alias), alias)
		}
	})
}

func TestEncodeValue(t *testing.T) {
	t.Run("zero uses the first alphabet character", func(t *testing.T) {
		assert.Equal(t, "_", hashcodec.EncodeValue(0))
	})

	t.Run("writes least significant digit first", func(t *testing.T) {
		// 1 + 2*64
		assert.Equal(t, "Ja", hashcodec.EncodeValue(129))
	})
}

func TestEncodeString(t *testing.T) {
	t.Run("matches Encode for canonical input", func(t *testing.T) {
		alias, err := hashcodec.EncodeString("6ba7b810-9dad-41d1-80b4-00c04fd430c8")

		require.NoError(t, err)
		assert.Equal(t, "e4_AvF", alias)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		alias, err := hashcodec.EncodeString("not-a-uuid")

		require.ErrorIs(t, err, hashcodec.ErrMalformedID)
		assert.Empty(t, alias)
	})
}

func TestValid(t *testing.T) {
	assert.True(t, hashcodec.Valid("e4_AvF"))
	assert.True(t, hashcodec.Valid("-_-"))
	assert.False(t, hashcodec.Valid(""))
	assert.False(t, hashcodec.Valid("abc.def"))
	assert.False(t, hashcodec.Valid(strings.Repeat("a", 3)+"/"))
}
