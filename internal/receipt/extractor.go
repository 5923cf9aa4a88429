// Package receipt turns recognized receipt text into candidate expense fields.
//
// Extraction is a pure text transform. It never calls the recognition engine,
// never fails for "nothing found" and gives the same result for the same text.
package receipt

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/money"
)

// Acceptance ranges
const (
	// maxAmountUnits is the exclusive upper bound for a believable receipt total
	maxAmountUnits = 10_000_000

	merchantMinLen = 4
	merchantMaxLen = 49

	itemMinLen = 6
	itemMaxLen = 99
	maxItems   = 10
)

// Fields holds the candidate values found in one receipt text. Absent fields stay empty.
type Fields struct {
	Amount   *money.Money
	Date     string
	Merchant string
	Items    []string
}

// Extractor parses receipt text with prioritized templates
type Extractor struct {
	currency  money.Currency
	threshold ConfidenceThreshold
}

// NewExtractor creates an extractor for amounts in currency
func NewExtractor(currency money.Currency, threshold ConfidenceThreshold) *Extractor {
	if currency == "" {
		currency = money.CurrencyINR
	}
	return &Extractor{
		currency:  currency,
		threshold: threshold,
	}
}

// Extract parses rawText into candidate fields
func (e *Extractor) Extract(rawText string) Fields {
	text := Normalize(rawText)
	return Fields{
		Amount:   e.amount(text),
		Date:     date(text),
		Merchant: merchant(text),
		Items:    items(text),
	}
}

// ExtractResult extracts fields and attaches the advisories a reviewer needs:
// low recognition confidence and an empty extraction. Neither blocks submission.
func (e *Extractor) ExtractResult(rawText string, confidence float64) *entity.OCRExtractionResult {
	f := e.Extract(rawText)
	result := &entity.OCRExtractionResult{
		RawText:    rawText,
		Confidence: confidence,
		Amount:     f.Amount,
		Date:       f.Date,
		Merchant:   f.Merchant,
		Items:      f.Items,
	}

	if e.threshold.IsLow(confidence) {
		result.Advisories = append(result.Advisories, entity.NewAdvisory(entity.CodeExtractionLowConfidence, entity.FieldReceipt,
			fmt.Sprintf("recognition confidence %.0f is below %.0f, verify every field", confidence, e.threshold.ReviewBelow)))
	}
	if result.IsEmpty() {
		result.Advisories = append(result.Advisories, entity.NewAdvisory(entity.CodeExtractionEmpty, entity.FieldReceipt,
			"no fields could be read from the receipt, enter them manually"))
	}
	result.NeedsReview = len(result.Advisories) > 0

	return result
}

func (e *Extractor) amount(text string) *money.Money {
	raw, ok := match(amountTemplates, text)
	if !ok {
		return nil
	}

	m, err := money.Parse(strings.ReplaceAll(raw, ",", ""), e.currency)
	if err != nil {
		return nil
	}
	if !m.IsPositive() || m.Cmp(money.Units(maxAmountUnits, e.currency)) >= 0 {
		return nil
	}
	return &m
}

func date(text string) string {
	value, _ := match(dateTemplates, text)
	return value
}

// merchant prefers an explicit label. Without one, the first capitalized line
// of acceptable length is taken.
func merchant(text string) string {
	if m := merchantLabel.re.FindStringSubmatch(text); len(m) > 1 {
		name := strings.TrimSpace(m[1])
		if inRange(name, merchantMinLen, merchantMaxLen) {
			return name
		}
		return ""
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		first, _ := utf8.DecodeRuneInString(line)
		if unicode.IsUpper(first) && inRange(line, merchantMinLen, merchantMaxLen) {
			return line
		}
	}
	return ""
}

func items(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.ContainsAny(line, "0123456789₹") {
			continue
		}
		if itemExclusions.MatchString(line) {
			continue
		}
		if !inRange(line, itemMinLen, itemMaxLen) {
			continue
		}
		out = append(out, line)
		if len(out) == maxItems {
			break
		}
	}
	return out
}

// inRange checks the length of s in characters, bounds inclusive
func inRange(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}
