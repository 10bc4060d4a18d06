package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short text", 100, 10)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("SplitText = %v, want the input unchanged", chunks)
	}
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 chars
	chunks := SplitText(text, 40, 10)

	if len(chunks) < 3 {
		t.Fatalf("chunk count = %d, want >= 3", len(chunks))
	}

	// Each boundary repeats the overlap region of the previous chunk.
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-10:]
		if !strings.HasPrefix(chunks[i], prevTail) {
			t.Errorf("chunk %d does not start with previous overlap", i)
		}
	}
}

func TestSplitTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("x", 95) + "END"
	chunks := SplitText(text, 40, 5)

	if !strings.HasSuffix(chunks[len(chunks)-1], "END") {
		t.Errorf("last chunk %q does not reach the end of the input", chunks[len(chunks)-1])
	}
}

func TestSplitTextDegenerateOverlap(t *testing.T) {
	// overlap >= chunkSize must not loop forever
	chunks := SplitText(strings.Repeat("y", 50), 10, 10)
	if len(chunks) != 5 {
		t.Errorf("chunk count = %d, want 5", len(chunks))
	}
}
