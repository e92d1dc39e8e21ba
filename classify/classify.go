package classify

import "math"

// IsLikelyBase64 reports whether b is better explained as base64 (of random
// bytes or of ASCII text) than as a word or a number. Short words that happen
// to be canonical base64 are occasionally misclassified.
func IsLikelyBase64(b []byte) bool {
	encoded := max(ScoreBase64(b), ScoreEncodedASCII(b))
	if math.IsInf(encoded, -1) {
		return false
	}
	return encoded > max(ScoreText(b), ScoreSameCaseText(b), ScoreNumber(b))
}

// IsLikelyBase64String is IsLikelyBase64 for strings.
func IsLikelyBase64String(s string) bool { return IsLikelyBase64([]byte(s)) }
