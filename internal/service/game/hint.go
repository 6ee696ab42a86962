package game

// HintPlaceholder 是提示中尚未揭示的字符
const HintPlaceholder = '_'

// InitHint returns a mask with one placeholder per rune of word.
func InitHint(word string) string {
	mask := make([]rune, len([]rune(word)))
	for i := range mask {
		mask[i] = HintPlaceholder
	}

	return string(mask)
}

// RevealNext copies the true rune into the leftmost placeholder of mask.
// The mask comes back unchanged when nothing is left to reveal or when it
// does not line up with word.
func RevealNext(mask, word string) string {
	m := []rune(mask)
	w := []rune(word)

	if len(m) != len(w) {
		return mask
	}

	for i, r := range m {
		if r == HintPlaceholder {
			m[i] = w[i]
			return string(m)
		}
	}

	return mask
}

// RevealedCount counts the positions of mask that are no longer placeholders.
func RevealedCount(mask string) int {
	n := 0
	for _, r := range mask {
		if r != HintPlaceholder {
			n++
		}
	}

	return n
}

// HintRevealCap 每轮最多揭示的字符数：三个字符以内的词 1 个，其余 2 个
func HintRevealCap(word string) int {
	n := len([]rune(word))
	if n <= 3 {
		return 1
	}

	return min(2, n)
}
