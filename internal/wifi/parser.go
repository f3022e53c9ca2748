package wifi

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/strct-org/strct-wifi/internal/errs"
)

const opParse errs.Op = "wifi.parseScan"

// Column order of `nmcli device wifi list`:
// IN-USE BSSID SSID MODE CHAN RATE SIGNAL BARS SECURITY
const (
	colInUse = iota
	colBSSID
	colSSID
	colMode
	colChannel
	colRate
	colSignal
	colBars
	colSecurity
	numColumns
)

// cellWidth measures runes the way nmcli pads its columns. Ambiguous runes
// such as the signal bar glyphs are one cell regardless of the locale that
// go-runewidth's default condition picks up from the environment.
var cellWidth = &runewidth.Condition{EastAsianWidth: false}

// ParseScan splits tabular scan output into its header and data lines and
// parses them. Output with no header yields an empty result.
func ParseScan(output string) ([]Network, error) {
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		return ParseTable(line, lines[i+1:])
	}
	return []Network{}, nil
}

// ParseTable parses data lines that are aligned to the column boundaries of
// header. Fields are cut at fixed display offsets, so values may contain
// spaces. The last column consumes the remainder of each line.
func ParseTable(header string, lines []string) ([]Network, error) {
	networks := make([]Network, 0, len(lines))

	widths := columnWidths(header)
	starts := make([]int, 0, numColumns)
	offset := 0
	for i := 0; i < len(widths) && i < numColumns; i++ {
		starts = append(starts, offset)
		offset += widths[i]
	}

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(starts) < numColumns {
			return nil, errs.E(opParse, errs.KindDecode, "unexpected scan header: "+strings.TrimSpace(header))
		}

		f := sliceColumns(line, starts)
		networks = append(networks, Network{
			BSSID:    f[colBSSID],
			SSID:     f[colSSID],
			Mode:     f[colMode],
			Channel:  lenientInt(f[colChannel]),
			Rate:     f[colRate],
			Signal:   lenientInt(f[colSignal]),
			Security: f[colSecurity],
		})
	}

	return networks, nil
}

// columnWidths returns the display width of every header word including the
// whitespace that follows it. Leading whitespace belongs to the first column.
func columnWidths(header string) []int {
	var widths []int
	width := 0
	inSpace := false
	seenWord := false

	for _, r := range header {
		if unicode.IsSpace(r) {
			inSpace = true
		} else {
			if inSpace && seenWord {
				widths = append(widths, width)
				width = 0
			}
			inSpace = false
			seenWord = true
		}
		width += cellWidth.RuneWidth(r)
	}
	if seenWord {
		widths = append(widths, width)
	}
	return widths
}

// sliceColumns assigns every rune of line to the column whose display range
// contains it. Columns past the end of a short line come back empty.
func sliceColumns(line string, starts []int) []string {
	var fields [numColumns]strings.Builder

	col := 0
	pos := 0
	for _, r := range line {
		for col+1 < len(starts) && pos >= starts[col+1] {
			col++
		}
		fields[col].WriteRune(r)
		pos += cellWidth.RuneWidth(r)
	}

	out := make([]string, numColumns)
	for i := range fields {
		out[i] = strings.TrimSpace(fields[i].String())
	}
	return out
}

// lenientInt parses a non-negative integer, yielding 0 for anything else.
func lenientInt(s string) int {
	v, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		return 0
	}
	return int(v)
}
