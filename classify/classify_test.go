package classify_test

import (
	"encoding/base64"
	"math"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/protoasm/classify"
)

const log2ProbDigit = -3.459432

func TestIsCanonicalBase64_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 1; n <= 96; n++ {
		b := make([]byte, n)
		rng.Read(b)
		enc := base64.StdEncoding.EncodeToString(b)
		require.Truef(t, classify.IsCanonicalBase64([]byte(enc)), "encoding of %d bytes: %q", n, enc)
		dec, err := base64.StdEncoding.Strict().DecodeString(enc)
		require.NoError(t, err)
		require.Equal(t, b, dec)
	}
}

func TestIsCanonicalBase64_Length(t *testing.T) {
	for _, s := range []string{"", "a", "ab", "abc", "abcde", "abcdefg"} {
		assert.Falsef(t, classify.IsCanonicalBase64([]byte(s)), "%q", s)
	}
}

func TestIsCanonicalBase64_PaddingBits(t *testing.T) {
	cases := map[string]bool{
		"aA==": true,
		"aQ==": true,  // Q = 16
		"aI==": false, // I = 8
		"abE=": true,  // E = 4
		"abC=": false, // C = 2
		"ab=c": false,
		"a===": false,
		"====": false,
		"ab c": false,
		"abcd": true,
		"ab+/": true,
		"ab-_": false,
	}
	for s, want := range cases {
		assert.Equalf(t, want, classify.IsCanonicalBase64([]byte(s)), "%q", s)
	}
}

func TestScoreBase64(t *testing.T) {
	assert.Equal(t, -24.0, classify.ScoreBase64([]byte("abcd")))
	assert.Equal(t, -48.0, classify.ScoreBase64([]byte("abcdefgh")))
	assert.Equal(t, -8.0, classify.ScoreBase64([]byte("aA==")))
	assert.Equal(t, -16.0, classify.ScoreBase64([]byte("abE=")))
	assert.True(t, math.IsInf(classify.ScoreBase64([]byte("abc")), -1))
}

func TestScoreEncodedASCII(t *testing.T) {
	for _, s := range []string{"Mic", "hello world!", "{\"a\":1}  ", "abcdef"} {
		enc := base64.StdEncoding.EncodeToString([]byte(s))
		want := -21.0 * float64(len(s)/3)
		assert.Equalf(t, want, classify.ScoreEncodedASCII([]byte(enc)), "%q -> %q", s, enc)
	}
	// "M" -> "TQ==": first slot plus the double pad.
	assert.Equal(t, -7.0, classify.ScoreEncodedASCII([]byte("TQ==")))
	// 0xfe has its top bit set.
	assert.True(t, math.IsInf(classify.ScoreEncodedASCII([]byte("/v7//w==")), -1))
}

func TestScoreNumber(t *testing.T) {
	cases := map[string]float64{
		"1234":      4 * log2ProbDigit,
		"0x1f":      2 * log2ProbDigit,
		"0X1F2E3D":  6 * log2ProbDigit,
		"2020/1/12": 7 * log2ProbDigit,
	}
	for s, want := range cases {
		assert.InDeltaf(t, want, classify.ScoreNumber([]byte(s)), 1e-9, "%q", s)
	}
	for _, s := range []string{"", "12a", "0x", "0x1fA", "2020//12", "/12", "12/", "-12"} {
		assert.Truef(t, math.IsInf(classify.ScoreNumber([]byte(s)), -1), "%q", s)
	}
}

func TestScoreText(t *testing.T) {
	long := strings.Repeat("a", 51)
	assert.True(t, math.IsInf(classify.ScoreText([]byte(long)), -1))
	assert.False(t, math.IsInf(classify.ScoreText([]byte(long[:50])), -1))

	assert.Equal(t, classify.ScoreText([]byte("mice")), classify.ScoreText([]byte("mice==")))
	assert.True(t, math.IsInf(classify.ScoreSameCaseText([]byte("Mice")), -1))
	assert.False(t, math.IsInf(classify.ScoreText([]byte("Mice")), -1))
	assert.Greater(t, classify.ScoreText([]byte("together")), classify.ScoreText([]byte("tGhoeter")))
}

func TestIsLikelyBase64_Examples(t *testing.T) {
	likely := []string{
		"SGVsbG8gd29ybGQ=",
		"aGVsbG8=",
		"/v7//w==",
		base64.StdEncoding.EncodeToString([]byte("\U0001D11E E♭7(♯11) D7(♯9) ♬ ♪  café naïve über")),
	}
	for _, s := range likely {
		assert.Truef(t, classify.IsLikelyBase64String(s), "%q", s)
	}
	unlikely := []string{
		"abc", "abC=", "aI==", "",
		"password", "username", "document", "together", "question", "children", "language",
		"Password", "PASSWORD", "Together", "QUESTION",
		"12345678", "true", "name", "Mice",
	}
	for _, s := range unlikely {
		assert.Falsef(t, classify.IsLikelyBase64String(s), "%q", s)
	}
}

func TestIsLikelyBase64_RandomBytes(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	total, hits := 0, 0
	for n := 1; n <= 40; n++ {
		for i := 0; i < 50; i++ {
			b := make([]byte, n)
			rng.Read(b)
			total++
			if classify.IsLikelyBase64String(base64.StdEncoding.EncodeToString(b)) {
				hits++
			}
		}
	}
	rate := float64(hits) / float64(total)
	require.GreaterOrEqualf(t, rate, 0.97, "detected %d of %d", hits, total)
}

func TestIsLikelyBase64_Words(t *testing.T) {
	data, err := os.ReadFile("words.txt")
	require.NoError(t, err)
	var variants []string
	for _, w := range strings.Fields(string(data)) {
		variants = append(variants, strings.ToLower(w), strings.ToUpper(w), strings.ToUpper(w[:1])+w[1:])
	}
	var missed []string
	for _, v := range variants {
		if classify.IsLikelyBase64String(v) {
			missed = append(missed, v)
		}
	}
	rate := float64(len(missed)) / float64(len(variants))
	assert.Lessf(t, rate, 0.02, "misclassified %d of %d", len(missed), len(variants))
	for _, m := range missed {
		assert.LessOrEqualf(t, len(m), 4, "only very short words may look like base64: %q", m)
	}
}
