package ner

import (
	"os"
	"path/filepath"
	"testing"
)

func testVocab() map[string]int64 {
	return map[string]int64{
		"[PAD]":  0,
		"[UNK]":  1,
		"[CLS]":  2,
		"[SEP]":  3,
		"john":   4,
		"smith":  5,
		"works":  6,
		"at":     7,
		"acme":   8,
		"##corp": 9,
	}
}

func TestEncodeWithOffsets(t *testing.T) {
	tok := NewWordPieceTokenizer(testVocab())

	text := "John Smith works"
	ids, attn, offsets := tok.EncodeWithOffsets(text, 10)

	if len(ids) != 10 || len(attn) != 10 || len(offsets) != 10 {
		t.Fatalf("lengths = %d/%d/%d, want 10 each", len(ids), len(attn), len(offsets))
	}

	wantIDs := []int64{2, 4, 5, 6, 3, 0, 0, 0, 0, 0}
	for i, want := range wantIDs {
		if ids[i] != want {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want)
		}
	}

	wantAttn := []int64{1, 1, 1, 1, 1, 0, 0, 0, 0, 0}
	for i, want := range wantAttn {
		if attn[i] != want {
			t.Errorf("attn[%d] = %d, want %d", i, attn[i], want)
		}
	}

	// Offsets project tokens back onto the source text. Specials carry -1.
	if offsets[0].Start != -1 || offsets[4].Start != -1 {
		t.Errorf("special token offsets = %v, %v", offsets[0], offsets[4])
	}
	if text[offsets[1].Start:offsets[1].End] != "John" {
		t.Errorf("token 1 covers %q", text[offsets[1].Start:offsets[1].End])
	}
	if text[offsets[2].Start:offsets[2].End] != "Smith" {
		t.Errorf("token 2 covers %q", text[offsets[2].Start:offsets[2].End])
	}
}

func TestEncodeWordPieceContinuation(t *testing.T) {
	tok := NewWordPieceTokenizer(testVocab())

	text := "acmecorp"
	ids, _, offsets := tok.EncodeWithOffsets(text, 8)

	if ids[1] != 8 || ids[2] != 9 {
		t.Fatalf("ids = %v, want acme + ##corp pieces", ids[:4])
	}
	if text[offsets[1].Start:offsets[1].End] != "acme" {
		t.Errorf("piece 1 covers %q", text[offsets[1].Start:offsets[1].End])
	}
	if text[offsets[2].Start:offsets[2].End] != "corp" {
		t.Errorf("piece 2 covers %q", text[offsets[2].Start:offsets[2].End])
	}
}

func TestEncodeUnknownWord(t *testing.T) {
	tok := NewWordPieceTokenizer(testVocab())

	text := "zzyzx"
	ids, _, offsets := tok.EncodeWithOffsets(text, 8)

	if ids[1] != 1 {
		t.Fatalf("ids[1] = %d, want [UNK]", ids[1])
	}
	if offsets[1].Start != 0 || offsets[1].End != len(text) {
		t.Errorf("unk offset = %v, want whole word", offsets[1])
	}
}

func TestEncodeTruncates(t *testing.T) {
	tok := NewWordPieceTokenizer(testVocab())

	ids, _, _ := tok.EncodeWithOffsets("john smith works at acme", 4)
	if len(ids) != 4 {
		t.Fatalf("len = %d, want 4", len(ids))
	}
	if ids[0] != 2 || ids[3] != 3 {
		t.Errorf("ids = %v, want [CLS] ... [SEP]", ids)
	}
}

func TestEncodeLowercases(t *testing.T) {
	tok := NewWordPieceTokenizer(testVocab())

	ids, _, _ := tok.EncodeWithOffsets("JOHN", 4)
	if ids[1] != 4 {
		t.Errorf("ids[1] = %d, want id of 'john'", ids[1])
	}
}

func TestLoadWordPieceTokenizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	body := "[PAD]\n[UNK]\n[CLS]\n[SEP]\njohn\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	tok, err := LoadWordPieceTokenizer(path)
	if err != nil {
		t.Fatalf("LoadWordPieceTokenizer: %v", err)
	}
	ids, _, _ := tok.EncodeWithOffsets("john", 4)
	if ids[1] != 4 {
		t.Errorf("ids[1] = %d, want 4", ids[1])
	}
}
