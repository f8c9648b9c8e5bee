package tools

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate_NoTruncation(t *testing.T) {
	s := "short"
	if got := Truncate(s, 0); got != s {
		t.Errorf("limit 0: got %q", got)
	}
	if got := Truncate(s, -1); got != s {
		t.Errorf("limit -1: got %q", got)
	}
	if got := Truncate(s, 5); got != s {
		t.Errorf("exact fit: got %q", got)
	}
}

func TestTruncate_ExactLimit(t *testing.T) {
	long := strings.Repeat("a", 500)
	for _, limit := range []int{4, 10, 200, 499} {
		got := Truncate(long, limit)
		if n := utf8.RuneCountInString(got); n != limit {
			t.Errorf("limit %d: got %d runes", limit, n)
		}
		if !strings.HasSuffix(got, Ellipsis) {
			t.Errorf("limit %d: missing marker: %q", limit, got)
		}
		if !strings.HasPrefix(got, strings.Repeat("a", limit-len(Ellipsis))) {
			t.Errorf("limit %d: prefix not preserved", limit)
		}
	}
}

func TestTruncate_TinyLimit(t *testing.T) {
	if got := Truncate("abcdef", 2); got != "ab" {
		t.Errorf("got %q", got)
	}
}

func TestTruncate_Unicode(t *testing.T) {
	s := strings.Repeat("世", 100)
	got := Truncate(s, 50)
	if !utf8.ValidString(got) {
		t.Fatalf("invalid utf8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 50 {
		t.Errorf("got %d runes", n)
	}
}
