package summarizer

import "unicode/utf8"

// Chunk boundary policy: each chunk is at most budget characters. Within a
// slack window before the hard limit the splitter prefers, in order, a
// paragraph break, a line break, then a sentence end, so chunks do not cut
// mid-sentence when a better boundary is close enough. A single run of text
// with no boundary at all is cut hard at the budget.

const boundarySlackDivisor = 10 // slack window = budget/10 characters

var sentenceEnders = []byte{'.', '!', '?'}

// SplitIntoChunks splits text into chunks of at most budget characters.
func SplitIntoChunks(text string, budget int) []string {
	if budget <= 0 || len(text) <= budget {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	slack := budget / boundarySlackDivisor
	var chunks []string
	for len(text) > 0 {
		if len(text) <= budget {
			chunks = append(chunks, text)
			break
		}
		cut := findBoundary(text[:budget], slack)
		// A hard cut can land inside a multi-byte rune; back up to its
		// first byte so no chunk carries a torn encoding.
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = budget
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return chunks
}

// findBoundary picks the cut position inside window, scanning backwards at
// most slack characters for a natural break.
func findBoundary(window string, slack int) int {
	limit := len(window) - slack
	if limit < 0 {
		limit = 0
	}

	// Paragraph break first, then line break.
	for i := len(window) - 1; i >= limit; i-- {
		if window[i] == '\n' {
			if i > 0 && window[i-1] == '\n' {
				return i + 1
			}
		}
	}
	for i := len(window) - 1; i >= limit; i-- {
		if window[i] == '\n' {
			return i + 1
		}
	}

	// Sentence end followed by whitespace.
	for i := len(window) - 2; i >= limit; i-- {
		if isSentenceEnd(window[i]) && window[i+1] == ' ' {
			return i + 2
		}
	}

	// No acceptable boundary in the slack window: hard cut.
	return len(window)
}

func isSentenceEnd(b byte) bool {
	for _, e := range sentenceEnders {
		if b == e {
			return true
		}
	}
	return false
}
