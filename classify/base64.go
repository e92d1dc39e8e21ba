package classify

import "math"

// NegInf is the score of a string a model cannot produce.
var NegInf = math.Inf(-1)

const (
	pad = '='

	log2ProbChar            = -6.0 // log2(1/64)
	log2ProbASCIIConstraint = -5.0 // log2(1/32)
	log2ProbBeforeSinglePad = -4.0 // low 2 bits zero
	log2ProbBeforeDoublePad = -2.0 // low 4 bits zero
)

var alphabetIndex = func() (t [256]int8) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = int8(i)
	}
	return t
}()

// slotScore scores the 6-bit value found at one position of a 4-character group.
type slotScore func(index int) float64

// groupModel scores base64 text one 4-character group at a time. The final
// group is special: characters right before padding must have their unused
// low-order bits cleared.
type groupModel [4]slotScore

var (
	base64Model = groupModel{anyChar, anyChar, anyChar, anyChar}

	// Plain ASCII input leaves the top bit of every source byte clear, which
	// pins one bit in each of the first three characters of a group.
	encodedASCIIModel = groupModel{clearBits(0x20), clearBits(0x08), clearBits(0x02), anyChar}
)

func anyChar(int) float64 { return log2ProbChar }

func clearBits(mask int) slotScore {
	return func(index int) float64 {
		if index&mask != 0 {
			return NegInf
		}
		return log2ProbASCIIConstraint
	}
}

func (m groupModel) slot(pos int, c byte) float64 {
	index := int(alphabetIndex[c])
	if index < 0 {
		return NegInf
	}
	return m[pos](index)
}

func (m groupModel) score(b []byte) float64 {
	n := len(b)
	if n < 4 || n%4 != 0 {
		return NegInf
	}
	sum := 0.0
	for i := 0; i < n-4; i += 4 {
		sum += m.slot(0, b[i]) + m.slot(1, b[i+1]) + m.slot(2, b[i+2]) + m.slot(3, b[i+3])
	}
	last := b[n-4:]
	sum += m.slot(0, last[0])
	if last[2] == pad {
		if last[3] != pad {
			return NegInf
		}
		return sum + beforePad(last[1], 0x0f, log2ProbBeforeDoublePad)
	}
	sum += m.slot(1, last[1])
	if last[3] == pad {
		return sum + beforePad(last[2], 0x03, log2ProbBeforeSinglePad)
	}
	return sum + m.slot(2, last[2]) + m.slot(3, last[3])
}

func beforePad(c byte, unused int, score float64) float64 {
	index := int(alphabetIndex[c])
	if index < 0 || index&unused != 0 {
		return NegInf
	}
	return score
}

// IsCanonicalBase64 reports whether b is base64 exactly as a correct encoder
// would emit it: padded to a multiple of four with zeroed padding bits.
func IsCanonicalBase64(b []byte) bool { return !math.IsInf(ScoreBase64(b), -1) }

// ScoreBase64 scores b as base64 of uniformly random bytes.
func ScoreBase64(b []byte) float64 { return base64Model.score(b) }

// ScoreEncodedASCII scores b as base64 of 7-bit ASCII text.
func ScoreEncodedASCII(b []byte) float64 { return encodedASCIIModel.score(b) }
