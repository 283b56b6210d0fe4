package identity

const (
	winklerPrefixCap = 4
	winklerScaling   = 0.1
)

// Similarity returns the Jaro-Winkler similarity of two normalized names, in
// [0, 1], compared character by character. Match thresholds are tuned against
// this exact variant: the prefix boost applies at every Jaro score and
// transpositions are halved without rounding.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 || len(br) == 0 {
		return 0.0
	}

	jaro := jaroSimilarity(ar, br)

	prefix := 0
	for prefix < winklerPrefixCap && prefix < len(ar) && prefix < len(br) && ar[prefix] == br[prefix] {
		prefix++
	}

	return jaro + float64(prefix)*winklerScaling*(1-jaro)
}

func jaroSimilarity(a, b []rune) float64 {
	aLen, bLen := len(a), len(b)

	window := aLen
	if bLen > window {
		window = bLen
	}
	window = window/2 - 1
	if window < 0 {
		window = 0
	}

	aMatched := make([]bool, aLen)
	bMatched := make([]bool, bLen)

	matches := 0
	for i := 0; i < aLen; i++ {
		start := i - window
		if start < 0 {
			start = 0
		}
		end := i + window + 1
		if end > bLen {
			end = bLen
		}
		for j := start; j < end; j++ {
			if bMatched[j] || a[i] != b[j] {
				continue
			}
			aMatched[i] = true
			bMatched[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < aLen; i++ {
		if !aMatched[i] {
			continue
		}
		for !bMatched[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(aLen) + m/float64(bLen) + (m-float64(transpositions)/2)/m) / 3.0
}
