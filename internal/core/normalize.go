package core

// normalize.go cleans spreadsheet cell text before it reaches the catalog.
//
// Spreadsheet tools mangle barcodes in predictable ways: numeric cells come
// back as floats ("8412345678901.0") or in scientific notation
// ("8.412345678901E+12"), CSV exports wrap values in ="..." to keep leading
// zeros, and pasted descriptions carry tabs and line breaks. These helpers
// undo that without touching anything that is already clean. Quotes that
// are part of the text, such as the inch mark in `Monitor 24"`, are kept.

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// floatPattern matches the renderings spreadsheets give a numeric cell: a
// mantissa with a decimal point, optionally followed by an exponent. Text
// such as "12E3" or "1E5" has no point and is not a float rendering.
var floatPattern = regexp.MustCompile(`^[+-]?(\d+\.\d*|\d*\.\d+)([eE][+-]?\d+)?$`)

// maxExactFloat is the largest integer a float64 holds exactly.
const maxExactFloat = 1 << 53

var (
	whitespaceReplacer = strings.NewReplacer("\t", " ", "\r\n", " ", "\r", " ", "\n", " ")
	controlStripper    = strings.NewReplacer("\t", "", "\r", "", "\n", "")
)

// CleanCell trims a cell, folds tabs and line breaks into spaces, removes an
// Excel text-formula wrapper (="...") and puts the text in Unicode NFC form.
func CleanCell(s string) string {
	s = whitespaceReplacer.Replace(s)
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}

	return norm.NFC.String(s)
}

// CleanCode cleans an article code cell. Tabs and line breaks are dropped
// rather than folded. The text is otherwise kept as typed.
func CleanCode(s string) string {
	return CleanCell(controlStripper.Replace(s))
}

// CleanEAN cleans a barcode cell like CleanCode and also turns an integral
// float rendering back into plain digits.
func CleanEAN(s string) string {
	return integralText(CleanCode(s))
}

// integralText rewrites "123.0" or "1.23E+2" as "123". Values with a real
// fractional part, or too large to be exact, are returned unchanged.
func integralText(s string) string {
	if !floatPattern.MatchString(s) {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	if f != math.Trunc(f) || math.Abs(f) > maxExactFloat {
		return s
	}
	return strconv.FormatFloat(f, 'f', 0, 64)
}

// isBlankRow reports whether every cell is empty after trimming.
func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// rowWidth is the number of cells up to and including the last non-blank one.
func rowWidth(cells []string) int {
	n := len(cells)
	for n > 0 && strings.TrimSpace(cells[n-1]) == "" {
		n--
	}
	return n
}

// cellAt returns cells[i], or "" when the row is shorter.
func cellAt(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}
