package words

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
)

// Source 为每一轮提供一个待画的词
type Source interface {
	Next() string
}

// 默认词库
var DefaultWords = []string{
	"apple", "car", "dog", "house", "tree", "airplane", "microscope",
	"skyscraper", "astronaut", "waterfall", "basketball", "helicopter",
	"chameleon", "snowflake", "volcano", "lightning", "submarine",
	"pineapple", "sandcastle", "hourglass", "rainbow", "telescope",
	"windmill", "keyboard", "headphones",
}

var ErrEmptyVocabulary = errors.New("vocabulary is empty")

// Vocabulary draws uniformly from a fixed word list. With avoidRepeats > 0 it
// will not hand out any of the last avoidRepeats words while alternatives exist.
type Vocabulary struct {
	mu           sync.Mutex
	words        []string
	avoidRepeats int
	recent       []string
	intN         func(n int) int
}

func NewVocabulary(list []string, avoidRepeats int) (*Vocabulary, error) {
	cleaned := make([]string, 0, len(list))
	for _, w := range list {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		cleaned = append(cleaned, w)
	}

	if len(cleaned) == 0 {
		return nil, ErrEmptyVocabulary
	}

	// 历史窗口必须小于词库大小，否则没有词可选
	if avoidRepeats >= len(cleaned) {
		avoidRepeats = len(cleaned) - 1
	}
	if avoidRepeats < 0 {
		avoidRepeats = 0
	}

	return &Vocabulary{
		words:        cleaned,
		avoidRepeats: avoidRepeats,
		intN:         rand.IntN,
	}, nil
}

func (v *Vocabulary) Next() string {
	if v.avoidRepeats == 0 {
		return v.words[v.intN(len(v.words))]
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	candidates := make([]string, 0, len(v.words))
	for _, w := range v.words {
		if !v.isRecent(w) {
			candidates = append(candidates, w)
		}
	}

	word := candidates[v.intN(len(candidates))]

	v.recent = append(v.recent, word)
	if len(v.recent) > v.avoidRepeats {
		v.recent = v.recent[1:]
	}

	return word
}

func (v *Vocabulary) isRecent(word string) bool {
	for _, r := range v.recent {
		if r == word {
			return true
		}
	}

	return false
}

func (v *Vocabulary) Len() int {
	return len(v.words)
}

// LoadFile reads a newline-separated word list. Blank lines and lines starting
// with '#' are skipped.
func LoadFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open word list %s: %w", path, err)
	}
	defer file.Close()

	var list []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list = append(list, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error while reading word list %s: %w", path, err)
	}

	return list, nil
}

// Fixed always returns the same word. Useful for wiring tests.
type Fixed string

func (f Fixed) Next() string {
	return string(f)
}
