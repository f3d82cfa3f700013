package identity

import "strings"

// soundexCode maps consonants to their Soundex digit. Vowels, h, w, and y
// map to zero and act as separators.
var soundexCode = map[byte]byte{
	'b': '1', 'f': '1', 'p': '1', 'v': '1',
	'c': '2', 'g': '2', 'j': '2', 'k': '2', 'q': '2', 's': '2', 'x': '2', 'z': '2',
	'd': '3', 't': '3',
	'l': '4',
	'm': '5', 'n': '5',
	'r': '6',
}

// Soundex computes the classic 4-character Soundex code of s. Non-letter
// input is ignored; an empty result is returned for input with no letters.
func Soundex(s string) string {
	s = strings.ToLower(s)

	var first byte
	var rest []byte
	var prev byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'a' || c > 'z' {
			continue
		}
		code := soundexCode[c]
		if first == 0 {
			first = c - 'a' + 'A'
			prev = code
			continue
		}
		// 'h' and 'w' are transparent: a consonant on either side of them
		// still counts as adjacent.
		if c == 'h' || c == 'w' {
			continue
		}
		if code == 0 {
			prev = 0
			continue
		}
		if code != prev {
			rest = append(rest, code)
			prev = code
		}
		if len(rest) == 3 {
			break
		}
	}
	if first == 0 {
		return ""
	}
	for len(rest) < 3 {
		rest = append(rest, '0')
	}
	return string(first) + string(rest)
}

// Similarity returns a normalized Levenshtein similarity in [0, 1]:
// 1 for identical strings, 0 when every character differs.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes edit distance with a single-row buffer.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cur := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = min(row[j]+1, min(row[j-1]+1, prev+cost))
			prev = cur
		}
	}
	return row[len(b)]
}
