package chunker

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"
)

func TestSplitShortText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxLength int
	}{
		{"empty", "", 10},
		{"exact length", "0123456789", 10},
		{"short with paragraphs", "a\n\nb", 100},
		{"multibyte within limit", "Привет, мир", 11},
		{"surrounding whitespace kept", "  task  ", 10},
	}

	for _, test := range tests {
		got := Split(test.text, test.maxLength)
		if len(got) != 1 || got[0] != test.text {
			t.Errorf("%s: expected [%q], got %q", test.name, test.text, got)
		}
	}
}

func TestSplitParagraphs(t *testing.T) {
	text := strings.Repeat("a", 8) + "\n\n" + strings.Repeat("b", 8) + "\n\n" + strings.Repeat("c", 8)

	got := Split(text, 20)

	expected := []string{
		strings.Repeat("a", 8) + "\n\n" + strings.Repeat("b", 8),
		strings.Repeat("c", 8),
	}
	if len(got) != len(expected) {
		t.Fatalf("expected %d chunks, got %d: %q", len(expected), len(got), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, expected[i], got[i])
		}
	}
}

func TestSplitLongParagraphBySentences(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."

	got := Split(text, 25)

	expected := []string{"First sentence here.", "Second sentence here.", "Third sentence here."}
	if len(got) != len(expected) {
		t.Fatalf("expected %d chunks, got %d: %q", len(expected), len(got), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, expected[i], got[i])
		}
	}
}

func TestSplitOversizedSentenceIsKept(t *testing.T) {
	long := strings.Repeat("x", 50)
	text := "Short one. " + long

	got := Split(text, 20)

	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(got), got)
	}
	if got[0] != "Short one." {
		t.Errorf("expected first chunk %q, got %q", "Short one.", got[0])
	}
	if got[1] != long {
		t.Errorf("expected oversized sentence to be emitted as is, got %q", got[1])
	}
}

func TestSplitNeverEmitsEmptyChunks(t *testing.T) {
	// the first paragraph fills maxLength, so the accumulator is still empty when it gets flushed
	text := strings.Repeat("b", 10) + "\n\n" + strings.Repeat("c", 10)

	for _, chunk := range Split(text, 10) {
		if chunk == "" {
			t.Fatalf("unexpected empty chunk in %q", Split(text, 10))
		}
	}
}

func TestSplitProperties(t *testing.T) {
	paragraph := strings.Repeat("Решим уравнение x + 2 = 5. Перенесём 2 вправо. ", 12)
	texts := []string{
		strings.Repeat("Word one. ", 3000),
		strings.Repeat(paragraph+"\n\n", 20),
		paragraph + "\n\n\n\n" + strings.Repeat("z", 90) + "\n\n" + paragraph,
		strings.Repeat("📚 Предмет: математика\n\n📝 Решение:\n1. Шаг. 2. Шаг.\n\n", 200),
	}

	for _, maxLength := range []int{100, 512, 4096} {
		for i, text := range texts {
			chunks := Split(text, maxLength)

			for j, chunk := range chunks {
				if n := utf8.RuneCountInString(chunk); n > maxLength {
					t.Errorf("text %d, max %d: chunk %d has length %d", i, maxLength, j, n)
				}
			}

			if got, want := stripSpace(strings.Join(chunks, "")), stripSpace(text); got != want {
				t.Errorf("text %d, max %d: non-whitespace content changed", i, maxLength)
			}
		}
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func TestUTF16Len(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"Решение", 7},
		{"✅ Ответ", 7},
		{"📚 Предмет", 10},
		{"📚📝", 4},
	}

	for _, tt := range tests {
		if got := UTF16Len(tt.in); got != tt.want {
			t.Errorf("UTF16Len(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSplitByUTF16KeepsEmojiChunksWithinLimit(t *testing.T) {
	paragraph := strings.Repeat("📚📝 шаг. ", 15)
	text := strings.Repeat(paragraph+"\n\n", 40)
	const maxLength = 300

	chunks := SplitBy(text, maxLength, UTF16Len)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	for i, chunk := range chunks {
		if n := UTF16Len(chunk); n > maxLength {
			t.Errorf("chunk %d has %d UTF-16 units, limit %d", i, n, maxLength)
		}
	}
	if stripSpace(strings.Join(chunks, "")) != stripSpace(text) {
		t.Error("non-whitespace content lost")
	}
}
