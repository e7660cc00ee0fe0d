package ui

import "testing"

func TestTruncate(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"fits", "Ceramic Mug", 20, "Ceramic Mug"},
		{"trims", "  Mug  ", 10, "Mug"},
		{"ellipsis", "Pour-Over Kettle", 10, "Pour-Ov..."},
		{"tiny limit", "Kettle", 2, "Ke"},
		{"no limit", "Kettle", 0, "Kettle"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := truncate(tc.in, tc.limit); got != tc.want {
				t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
			}
		})
	}
}

func TestPadding(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("padRight = %q, want %q", got, "ab  ")
	}
	if got := padLeft("ab", 4); got != "  ab" {
		t.Fatalf("padLeft = %q, want %q", got, "  ab")
	}
	if got := padLeft("abcdef", 4); got != "abcdef" {
		t.Fatalf("padLeft overflow = %q, want unchanged", got)
	}
}

func TestClampIndex(t *testing.T) {
	cases := []struct{ i, n, want int }{
		{0, 0, 0},
		{5, 0, 0},
		{-1, 3, 0},
		{3, 3, 2},
		{1, 3, 1},
	}
	for _, tc := range cases {
		if got := clampIndex(tc.i, tc.n); got != tc.want {
			t.Fatalf("clampIndex(%d, %d) = %d, want %d", tc.i, tc.n, got, tc.want)
		}
	}
}
