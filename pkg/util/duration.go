package util

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration as mm:ss, or hh:mm:ss past one hour.
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// PageBounds clamps page to [1, pages] for the given total and page size and
// returns the slice bounds for that page. pages is always at least 1.
func PageBounds(total, perPage, page int) (start, end, clamped, pages int) {
	if perPage < 1 {
		perPage = 1
	}
	pages = (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start = (page - 1) * perPage
	end = start + perPage
	if end > total {
		end = total
	}
	return start, end, page, pages
}
