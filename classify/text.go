package classify

import (
	_ "embed"
	"math"
	"strings"
)

// words is the training corpus for the text models: common English words and
// identifiers, whitespace separated.
//
//go:embed words.txt
var words string

const (
	maxTextLength = 50

	classDigit = 26
	classOther = 27
	numClasses = 28
	classEnd   = numClasses // transition column for end of string

	smoothing   = 0.5
	log2ProbPad = 0.0
)

// memberBits is the cost of choosing one member of a character class.
var memberBits = func() (t [numClasses]float64) {
	t[classDigit] = math.Log2(10)
	t[classOther] = math.Log2(32)
	return t
}()

var (
	log2FirstCase   = -1.0
	log2LowerLower  = math.Log2(0.95)
	log2LowerUpper  = math.Log2(0.05)
	log2UpperUpper  = math.Log2(0.6)
	log2UpperLower  = math.Log2(0.4)
	textBigramModel = trainBigrams(strings.Fields(words))
)

// bigramModel is an order-1 Markov chain over case-folded character classes.
// The end distribution is the chain's transition into classEnd.
type bigramModel struct {
	start [numClasses]float64
	next  [numClasses][numClasses + 1]float64
}

func classOf(c byte) int {
	switch {
	case 'a' <= c && c <= 'z':
		return int(c - 'a')
	case 'A' <= c && c <= 'Z':
		return int(c - 'A')
	case isDigit(c):
		return classDigit
	default:
		return classOther
	}
}

func trainBigrams(corpus []string) *bigramModel {
	var start [numClasses]float64
	var next [numClasses][numClasses + 1]float64
	for _, w := range corpus {
		prev := classOf(w[0])
		start[prev]++
		for i := 1; i < len(w); i++ {
			c := classOf(w[i])
			next[prev][c]++
			prev = c
		}
		next[prev][classEnd]++
	}
	m := &bigramModel{}
	log2Normalize(start[:], m.start[:])
	for i := range next {
		log2Normalize(next[i][:], m.next[i][:])
	}
	return m
}

func log2Normalize(counts, out []float64) {
	total := 0.0
	for _, c := range counts {
		total += c + smoothing
	}
	for i, c := range counts {
		out[i] = math.Log2((c + smoothing) / total)
	}
}

func (m *bigramModel) score(b []byte, sameCase bool) float64 {
	n := len(b)
	if n > maxTextLength {
		return NegInf
	}
	pads := 0
	for pads < 2 && n > 0 && b[n-1] == pad {
		n--
		pads++
	}
	if n == 0 {
		return NegInf
	}
	b = b[:n]
	s := m.start[classOf(b[0])] + m.next[classOf(b[n-1])][classEnd]
	for _, c := range b {
		s -= memberBits[classOf(c)]
	}
	for i := 1; i < n; i++ {
		s += m.next[classOf(b[i-1])][classOf(b[i])]
	}
	return s + caseScore(b, sameCase) + log2ProbPad*float64(pads)
}

func caseScore(b []byte, sameCase bool) float64 {
	s := 0.0
	seen, prevUpper := false, false
	for _, c := range b {
		upper := 'A' <= c && c <= 'Z'
		if !upper && (c < 'a' || c > 'z') {
			continue
		}
		switch {
		case !seen:
			s += log2FirstCase
		case sameCase:
			if upper != prevUpper {
				return NegInf
			}
		case prevUpper && upper:
			s += log2UpperUpper
		case prevUpper:
			s += log2UpperLower
		case upper:
			s += log2LowerUpper
		default:
			s += log2LowerLower
		}
		seen, prevUpper = true, upper
	}
	return s
}

// ScoreText scores b as a word or short token in which letter case may vary.
// Strings longer than 50 bytes score NegInf. Up to two trailing '=' are
// ignored.
func ScoreText(b []byte) float64 { return textBigramModel.score(b, false) }

// ScoreSameCaseText is ScoreText restricted to strings whose letters are all
// upper case or all lower case.
func ScoreSameCaseText(b []byte) float64 { return textBigramModel.score(b, true) }
