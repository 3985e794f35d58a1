package program

import (
	"strings"
	"testing"
)

func TestLoadParsesWhitespaceSeparatedHex(t *testing.T) {
	input := "0x08010001\n09020002\n\n\t54000000"
	words, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []uint32{0x08010001, 0x09020002, 0x54000000}
	if len(words) != len(want) {
		t.Fatalf("got %d words, want %d", len(words), len(want))
	}
	for i, w := range want {
		if words[i] != w {
			t.Errorf("word %d = 0x%08X, want 0x%08X", i, words[i], w)
		}
	}
}

func TestLoadRejectsBadToken(t *testing.T) {
	_, err := Load(strings.NewReader("not-hex"))
	if err == nil {
		t.Fatal("expected an error for a non-hex token")
	}
}
