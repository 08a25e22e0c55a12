package util

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{65 * time.Second, "01:05"},
		{300 * time.Second, "05:00"},
		{3600 * time.Second, "01:00:00"},
		{3725 * time.Second, "01:02:05"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.in); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPageBounds(t *testing.T) {
	start, end, page, pages := PageBounds(25, 10, 2)
	if start != 10 || end != 20 || page != 2 || pages != 3 {
		t.Errorf("got start=%d end=%d page=%d pages=%d", start, end, page, pages)
	}

	// Page past the end clamps to the last page.
	start, end, page, pages = PageBounds(25, 10, 9)
	if start != 20 || end != 25 || page != 3 || pages != 3 {
		t.Errorf("got start=%d end=%d page=%d pages=%d", start, end, page, pages)
	}

	// Empty list still reports one page.
	start, end, page, pages = PageBounds(0, 10, 1)
	if start != 0 || end != 0 || page != 1 || pages != 1 {
		t.Errorf("got start=%d end=%d page=%d pages=%d", start, end, page, pages)
	}
}
