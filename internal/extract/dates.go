package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Years outside this window are treated as garbled matches, not dates.
const (
	minValidYear = 2000
	maxValidYear = 2030
)

// Fixed phrase templates, one per supported locale. Tried in order,
// first successful parse wins.
var (
	startDatePT = regexp.MustCompile(`(?i)veiculação iniciada em\s+(\d{1,2})\s+de\s+([\p{L}]+\.?)\s+de\s+(\d{4})`)
	startDateEN = regexp.MustCompile(`(?i)started running on\s+([A-Za-z]+\.?)\s+(\d{1,2}),?\s+(\d{4})`)

	endDatePT = []*regexp.Regexp{
		regexp.MustCompile(`(?i)encerrado em\s+(\d{1,2})\s+de\s+([\p{L}]+\.?)\s+de\s+(\d{4})`),
		regexp.MustCompile(`(?i)finalizado em\s+(\d{1,2})\s+de\s+([\p{L}]+\.?)\s+de\s+(\d{4})`),
		regexp.MustCompile(`(?i)término[:\s]+(\d{1,2})\s+de\s+([\p{L}]+\.?)\s+de\s+(\d{4})`),
	}

	activeTimePT = regexp.MustCompile(`(?i)tempo total ativo[:\s]*(.+)$`)
	activeTimeEN = regexp.MustCompile(`(?i)total time active[:\s]*(.+)$`)

	durationHours  = regexp.MustCompile(`(?i)(\d+)\s*h(?:ora)?`)
	durationDays   = regexp.MustCompile(`(?i)(\d+)\s*(?:dia|day)`)
	durationWeeks  = regexp.MustCompile(`(?i)(\d+)\s*(?:semana|week)`)
	durationMonths = regexp.MustCompile(`(?i)(\d+)\s*(?:m[eê]s|month)`)
)

// DateInfo is the activity-window signal extracted from one card.
type DateInfo struct {
	StartDate *time.Time
	EndDate   *time.Time

	// ActiveTimeDays is the "total time active" phrase converted to whole
	// days, when the card exposes one. The record's ActiveDays is derived
	// from the dates; this phrase fills in when no dates are present.
	ActiveTimeDays *int
}

// DateExtractor parses localized activity-window phrases.
type DateExtractor struct {
	locales Locales
}

// NewDateExtractor builds an extractor over the given locale tables.
func NewDateExtractor(locales Locales) *DateExtractor {
	return &DateExtractor{locales: locales}
}

// Extract scans the card text line by line for start date, end date and
// the active-time phrase.
func (e *DateExtractor) Extract(fullText string) DateInfo {
	info := DateInfo{}

	for _, line := range splitLines(fullText) {
		if info.StartDate == nil {
			if d, ok := e.parseStartDate(line); ok {
				info.StartDate = &d
			}
		}
		if info.EndDate == nil {
			if d, ok := e.parseEndDate(line); ok {
				info.EndDate = &d
			}
		}
		if info.ActiveTimeDays == nil {
			if days, ok := parseActiveTime(line); ok {
				info.ActiveTimeDays = &days
			}
		}
	}

	return info
}

// parseStartDate tries each locale's template in order; the first
// template that yields a valid calendar date wins.
func (e *DateExtractor) parseStartDate(line string) (time.Time, bool) {
	if m := startDatePT.FindStringSubmatch(line); m != nil {
		if d, ok := e.buildDate(m[3], m[2], m[1], "pt"); ok {
			return d, true
		}
	}
	if m := startDateEN.FindStringSubmatch(line); m != nil {
		if d, ok := e.buildDate(m[3], m[1], m[2], "en"); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

func (e *DateExtractor) parseEndDate(line string) (time.Time, bool) {
	for _, re := range endDatePT {
		if m := re.FindStringSubmatch(line); m != nil {
			if d, ok := e.buildDate(m[3], m[2], m[1], "pt"); ok {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

func (e *DateExtractor) buildDate(yearStr, monthName, dayStr, localeCode string) (time.Time, bool) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < minValidYear || year > maxValidYear {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	loc := e.locale(localeCode)
	if loc == nil {
		return time.Time{}, false
	}
	month, ok := loc.MonthNumber(monthName)
	if !ok {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func (e *DateExtractor) locale(code string) *Locale {
	for i := range e.locales {
		if e.locales[i].Code == code {
			return &e.locales[i]
		}
	}
	return nil
}

// parseActiveTime converts a "total time active" phrase into whole days.
// Sub-day phrases count as zero days.
func parseActiveTime(line string) (int, bool) {
	var phrase string
	if m := activeTimePT.FindStringSubmatch(line); m != nil {
		phrase = m[1]
	} else if m := activeTimeEN.FindStringSubmatch(line); m != nil {
		phrase = m[1]
	} else {
		return 0, false
	}

	phrase = strings.TrimSpace(phrase)
	if m := durationHours.FindStringSubmatch(phrase); m != nil {
		hours, _ := strconv.Atoi(m[1])
		if hours < 24 {
			return 0, true
		}
		return hours / 24, true
	}
	if m := durationDays.FindStringSubmatch(phrase); m != nil {
		days, _ := strconv.Atoi(m[1])
		return days, true
	}
	if m := durationWeeks.FindStringSubmatch(phrase); m != nil {
		weeks, _ := strconv.Atoi(m[1])
		return weeks * 7, true
	}
	if m := durationMonths.FindStringSubmatch(phrase); m != nil {
		months, _ := strconv.Atoi(m[1])
		return months * 30, true
	}
	return 0, false
}

// ActiveDays computes the elapsed whole days of an ad's activity window.
// Returns nil when the window cannot be established: no start date, or an
// inactive ad whose end date is unknown.
func ActiveDays(start, end *time.Time, active bool, now time.Time) *int {
	if start == nil {
		return nil
	}

	var until time.Time
	switch {
	case !active && end != nil:
		until = *end
	case active:
		until = now
	default:
		return nil
	}

	diff := until.Sub(*start)
	if diff < 0 {
		diff = -diff
	}
	days := int((diff + 24*time.Hour - 1) / (24 * time.Hour))
	return &days
}
