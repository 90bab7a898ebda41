package passport

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthAbbrev = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// FormatDate renders an ISO YYYY-MM-DD date as "D Mon YYYY". Malformed
// input, including the placeholder, renders as "".
//
//	FormatDate("2024-03-05") // "5 Mar 2024"
func FormatDate(iso string) string {
	parts := strings.Split(strings.TrimSpace(iso), "-")
	if len(parts) != 3 {
		return ""
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || p == "" || strings.ContainsAny(p, "+-") {
			return ""
		}
		nums[i] = n
	}
	year, month, day := nums[0], nums[1], nums[2]
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}
	return fmt.Sprintf("%d %s %d", day, monthAbbrev[month-1], year)
}

// MRZ layout.
const (
	mrzFiller = "<"

	// MRZMargin is the total horizontal margin (left plus right) of the
	// machine-readable zone.
	MRZMargin = 80
)

// MaxMRZChars is the number of filler glyphs that fit across a canvas of
// the given width, given the rendered width of one "<".
func MaxMRZChars(canvasWidth int, fillerWidth float64) int {
	if fillerWidth <= 0 {
		return 0
	}
	return int(math.Floor(float64(canvasWidth-MRZMargin) / fillerWidth))
}

// MRZLine1 encodes "<FIRST<SURNAME<REPUTATION" padded with "<" to maxChars.
// Longer lines are returned whole.
func MRZLine1(r Record, maxChars int) string {
	line := mrzFiller + mrzField(r.FirstName) + mrzFiller + mrzField(r.Surname) + mrzFiller + mrzField(r.Reputation)
	return padMRZ(line, maxChars)
}

// MRZLine2 encodes "<WALLET", or the token id when there is no wallet,
// padded with "<" to maxChars.
func MRZLine2(r Record, maxChars int) string {
	id := mrzField(r.Wallet)
	if id == "" {
		id = mrzField(r.TokenID)
	}
	return padMRZ(mrzFiller+id, maxChars)
}

// mrzField uppercases v and replaces spaces with the filler. The
// placeholder encodes as empty.
func mrzField(v string) string {
	v = strings.TrimSpace(v)
	if v == Placeholder {
		return ""
	}
	return strings.ReplaceAll(strings.ToUpper(v), " ", mrzFiller)
}

func padMRZ(line string, maxChars int) string {
	if n := maxChars - len([]rune(line)); n > 0 {
		line += strings.Repeat(mrzFiller, n)
	}
	return line
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename returns the PNG file name for a passport: based on the handle
// when there is one, else on the current time in milliseconds.
func Filename(handle string, now time.Time) string {
	handle = unsafeFilename.ReplaceAllString(strings.TrimSpace(handle), "_")
	handle = strings.Trim(handle, "._")
	if handle == "" {
		return fmt.Sprintf("6529-passport-%d.png", now.UnixMilli())
	}
	return filepath.Base("6529-passport-" + handle + ".png")
}
