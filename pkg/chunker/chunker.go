// Package chunker splits long answers into pieces that fit into a single Telegram message.
package chunker

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const (
	paragraphSeparator = "\n\n"
	sentenceSeparator  = ". "
)

// Split cuts text into chunks of at most maxLength characters, preferring paragraph and then
// sentence boundaries. Text that already fits is returned unchanged as a single chunk.
// A single sentence longer than maxLength is emitted as is.
func Split(text string, maxLength int) []string {
	return SplitBy(text, maxLength, utf8.RuneCountInString)
}

// SplitBy is Split with a custom length measure, such as UTF16Len for Telegram's limits.
func SplitBy(text string, maxLength int, length func(string) int) []string {
	if length(text) <= maxLength {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
	)

	flush := func() {
		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current.Reset()
	}

	for _, paragraph := range strings.Split(text, paragraphSeparator) {
		if length(paragraph) > maxLength {
			flush()

			for _, sentence := range sentences(paragraph) {
				if length(current.String())+length(sentence)+1 > maxLength {
					flush()
				}
				current.WriteString(sentence)
				current.WriteString(" ")
			}
			continue
		}

		if length(current.String())+length(paragraph)+len(paragraphSeparator) > maxLength {
			flush()
		}
		current.WriteString(paragraph)
		current.WriteString(paragraphSeparator)
	}

	flush()

	return chunks
}

// sentences splits a paragraph on ". " keeping the period with the sentence it ends.
func sentences(paragraph string) []string {
	parts := strings.Split(paragraph, sentenceSeparator)
	for i := 0; i < len(parts)-1; i++ {
		parts[i] += "."
	}
	return parts
}

// UTF16Len counts UTF-16 code units, the unit Telegram measures message length in.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
