package receipt

import "regexp"

// template is one named pattern. Group 1 holds the captured value.
type template struct {
	name string
	re   *regexp.Regexp
}

const number = `([0-9][0-9,]*(?:\.[0-9]{1,2})?)`

// Templates are tried in order; the first one that matches decides the field.
// Horizontal whitespace only, so a capture never spans two lines.
var (
	amountTemplates = []template{
		{name: "labelled", re: regexp.MustCompile(`(?i)(?:\b(?:total|amount|inr|rs)\b\.?|₹)[ \t]*[:\-]?[ \t]*(?:rs\.?|inr|₹)?[ \t]*` + number)},
		{name: "suffixed", re: regexp.MustCompile(`(?i)` + number + `[ \t]*(?:(?:rs|inr)\b\.?|₹)`)},
		{name: "symbol", re: regexp.MustCompile(`₹[ \t]*` + number)},
	}

	dateTemplates = []template{
		{name: "numeric", re: regexp.MustCompile(`\b([0-9]{1,2}[-/.][0-9]{1,2}[-/.](?:[0-9]{4}|[0-9]{2}))\b`)},
		{name: "textual", re: regexp.MustCompile(`(?i)\b([0-9]{1,2}(?:st|nd|rd|th)?[ \t]+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?[ \t]+[0-9]{4})\b`)},
		{name: "iso", re: regexp.MustCompile(`\b([0-9]{4}-[0-9]{2}-[0-9]{2})\b`)},
	}

	// "from" and "at" need a colon to count as a label; they are common in
	// ordinary receipt text.
	merchantLabel = template{
		name: "labelled",
		re:   regexp.MustCompile(`(?i)(?:\b(?:merchant|store)\b[ \t]*:?|\b(?:from|at)\b[ \t]*:)[ \t]*([A-Za-z][^\n]*)`),
	}

	itemExclusions = regexp.MustCompile(`(?i)total|amount|date|merchant|store`)
)

// match returns the first capture of the first template that matches text
func match(templates []template, text string) (string, bool) {
	for _, t := range templates {
		if m := t.re.FindStringSubmatch(text); len(m) > 1 {
			return m[1], true
		}
	}
	return "", false
}
