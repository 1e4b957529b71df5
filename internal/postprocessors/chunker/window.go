package chunker

import (
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// Windows splits text into overlapping windows of at most size characters.
// Each window after the first starts overlap characters before the end of the
// previous one, so the stride is size-overlap. The final window may be shorter.
// Empty text yields nothing. The sequence is lazy and may be ranged over more
// than once.
//
// Windows does not validate its arguments; use domain.ValidateChunking first.
func Windows(text string, size, overlap int) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		if text == "" || size <= 0 || overlap >= size {
			return
		}
		runes := []rune(text)
		stride := size - overlap
		for i, start := 0, 0; start < len(runes); i, start = i+1, start+stride {
			end := min(start+size, len(runes))
			if !yield(i, string(runes[start:end])) {
				return
			}
			if end == len(runes) {
				return
			}
		}
	}
}

// Split returns every window of text. It rejects configurations that cannot
// make progress with domain.ErrConfig.
func Split(text string, size, overlap int) ([]string, error) {
	if err := domain.ValidateChunking(size, overlap); err != nil {
		return nil, err
	}
	out := make([]string, 0, Estimate(utf8.RuneCountInString(text), size, overlap))
	for _, w := range Windows(text, size, overlap) {
		out = append(out, w)
	}
	return out, nil
}

// Estimate returns ceil(length/stride), a planning estimate of the number of
// windows. The exact count may differ by one.
func Estimate(length, size, overlap int) int {
	stride := size - overlap
	if length <= 0 || stride <= 0 {
		return 0
	}
	return (length + stride - 1) / stride
}

// Normalise collapses every run of whitespace to a single space and trims
// the result.
func Normalise(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
