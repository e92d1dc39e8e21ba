package classify

const log2ProbDigit = -3.459432

// ScoreNumber scores b as a decimal integer, a slash separated date or a
// 0x-prefixed hex literal, whichever fits best.
func ScoreNumber(b []byte) float64 {
	return max(scoreInteger(b), scoreDate(b), scoreHex(b))
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func scoreInteger(b []byte) float64 {
	if len(b) == 0 {
		return NegInf
	}
	for _, c := range b {
		if !isDigit(c) {
			return NegInf
		}
	}
	return log2ProbDigit * float64(len(b))
}

func scoreDate(b []byte) float64 {
	if len(b) == 0 || !isDigit(b[0]) || !isDigit(b[len(b)-1]) {
		return NegInf
	}
	digits := 0
	for i, c := range b {
		switch {
		case isDigit(c):
			digits++
		case c == '/' && b[i-1] != '/':
		default:
			return NegInf
		}
	}
	return log2ProbDigit * float64(digits)
}

func scoreHex(b []byte) float64 {
	if len(b) < 3 || b[0] != '0' || (b[1] != 'x' && b[1] != 'X') {
		return NegInf
	}
	digits := b[2:]
	if !allHex(digits, 'a', 'f') && !allHex(digits, 'A', 'F') {
		return NegInf
	}
	return log2ProbDigit * float64(len(digits))
}

func allHex(b []byte, lo, hi byte) bool {
	for _, c := range b {
		if !isDigit(c) && (c < lo || c > hi) {
			return false
		}
	}
	return true
}
