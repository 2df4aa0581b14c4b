package protocol

import "testing"

func TestTokenize(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"ping", []string{"ping"}},
		{"enqueue q 1 0 5", []string{"enqueue", "q", "1", "0", "5"}},
		{"enqueue   q  1", []string{"enqueue", "q", "1"}},
		{"", nil},
		{"   ", nil},
	}

	for _, tt := range tests {
		got := tokenize([]byte(tt.line))
		if len(got) != len(tt.want) {
			t.Fatalf("tokenize(%q) = %v, want %v", tt.line, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("tokenize(%q)[%d] = %q, want %q", tt.line, i, got[i], tt.want[i])
			}
		}
	}
}

func TestTokenizeCapsAtMaxTokens(t *testing.T) {
	line := ""
	for i := 0; i < MaxLineTokens+20; i++ {
		line += "a "
	}
	got := tokenize([]byte(line))
	if len(got) != MaxLineTokens {
		t.Fatalf("tokenize produced %d tokens, want %d", len(got), MaxLineTokens)
	}
}

func TestParseInt32(t *testing.T) {
	if v, ok := parseInt32("42"); !ok || v != 42 {
		t.Fatalf("parseInt32(42) = %d, %v", v, ok)
	}
	if v, ok := parseInt32("-7"); !ok || v != -7 {
		t.Fatalf("parseInt32(-7) = %d, %v", v, ok)
	}
	if _, ok := parseInt32("12x"); ok {
		t.Fatal("parseInt32(12x) should fail")
	}
	if _, ok := parseInt32(""); ok {
		t.Fatal("parseInt32(\"\") should fail")
	}
}

func TestParseInt64(t *testing.T) {
	if v, ok := parseInt64("9999999999"); !ok || v != 9999999999 {
		t.Fatalf("parseInt64 = %d, %v", v, ok)
	}
	if _, ok := parseInt64("abc"); ok {
		t.Fatal("parseInt64(abc) should fail")
	}
}
