package aggregate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/contas-publicas/internal/types"
)

var (
	monthPrefixes = func() map[string]time.Month {
		m := make(map[string]time.Month, len(types.MonthAbbreviations))
		for i, abbr := range types.MonthAbbreviations {
			m[strings.ToLower(abbr)] = time.Month(i + 1)
		}
		return m
	}()

	trailingYear = regexp.MustCompile(`(\d{2})$`)
	digitRun     = regexp.MustCompile(`\d{2,}`)
)

// PeriodFromFilename derives the calendar month of an export from its file
// name. The stem (everything before the first ".") starts with a Portuguese
// three-letter month abbreviation, case-insensitive, and carries a two-digit
// year: "Jan24.txt" is January 2024.
//
// The year is taken from the last two characters of the stem when they are
// digits; otherwise from the first run of two or more digits after the
// prefix (its last two digits), so "Jan24_v2.txt" is still January 2024.
//
// An unknown prefix is not fatal: the month defaults to January and
// recognized is false so the caller can warn. A stem without a year is an
// error wrapping types.ErrUnrecognizedPeriod.
func PeriodFromFilename(path string) (period types.Month, recognized bool, err error) {
	stem, _, _ := strings.Cut(filepath.Base(path), ".")

	month := time.January
	if len(stem) >= 3 {
		month, recognized = monthPrefixes[strings.ToLower(stem[:3])]
		if !recognized {
			month = time.January
		}
	}

	yy, ok := yearDigits(stem)
	if !ok {
		return types.Month{}, recognized, fmt.Errorf("%w: no two-digit year in %q", types.ErrUnrecognizedPeriod, filepath.Base(path))
	}

	return types.NewMonth(2000+yy, month), recognized, nil
}

func yearDigits(stem string) (int, bool) {
	if m := trailingYear.FindString(stem); m != "" {
		yy, _ := strconv.Atoi(m)
		return yy, true
	}

	rest := stem
	if len(rest) >= 3 {
		rest = rest[3:]
	}
	run := digitRun.FindString(rest)
	if run == "" {
		return 0, false
	}
	yy, _ := strconv.Atoi(run[len(run)-2:])
	return yy, true
}
