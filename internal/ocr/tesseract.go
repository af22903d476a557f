package ocr

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractAdapter is the classical OCR backend. Text recognition is done by
// tesseract through gosseract; the structured guess comes from line-level
// heuristics over the recognized text.
type TesseractAdapter struct {
	language string
}

func NewTesseractAdapter(language string) *TesseractAdapter {
	if language == "" {
		language = "eng"
	}

	return &TesseractAdapter{language: language}
}

func (a *TesseractAdapter) Extract(
	ctx context.Context,
	image []byte,
	mimeType string,
	vendorHints []string,
) (*Result, error) {
	rawText, err := a.recognize(image)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition: %w", err)
	}

	fields := map[string]any{}
	if vendor := findVendor(rawText, vendorHints); vendor != "" {
		fields["vendor"] = vendor
	}
	if total := findTotal(rawText); total != "" {
		fields["total"] = total
	}
	if date := findDate(rawText); date != "" {
		fields["date"] = date
	}

	return &Result{
		RawText: rawText,
		Fields:  fields,
		Items:   findLineItems(rawText),
	}, nil
}

func (a *TesseractAdapter) recognize(image []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(a.language); err != nil {
		return "", err
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return "", err
	}

	return client.Text()
}

var (
	phonePattern    = regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`)
	addressPattern  = regexp.MustCompile(`(?i)\d+\s+[A-Za-z]+.*\b(street|st|avenue|ave|road|rd|drive|dr|lane|ln)\b`)
	// Prices must carry cents, otherwise trailing phone digits and years
	// show up as amounts.
	pricePattern    = regexp.MustCompile(`(\$?\d+[.,]\d{2})\s*$`)
	anyPricePattern = regexp.MustCompile(`\$?\d+[.,]\d{2}`)
	totalPattern    = regexp.MustCompile(`(?i)\btotal\b`)
	nonItemPattern  = regexp.MustCompile(`(?i)\b(total|subtotal|tax|balance|change|cash|card|tender)\b`)
	mdyDatePattern  = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)
	ymdDatePattern  = regexp.MustCompile(`\b(\d{4})[/-](\d{1,2})[/-](\d{1,2})\b`)
)

// findVendor checks known vendors first, then falls back to the top lines of
// the receipt, skipping anything that looks like a phone number or address.
func findVendor(text string, known []string) string {
	lower := strings.ToLower(text)
	for _, vendor := range known {
		if strings.Contains(lower, strings.ToLower(vendor)) {
			return vendor
		}
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || phonePattern.MatchString(line) || addressPattern.MatchString(line) {
			continue
		}

		if len(line) > 3 && (line == strings.ToUpper(line) || len(strings.Fields(line)) >= 2) {
			return line
		}
	}

	return ""
}

func findTotal(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if !totalPattern.MatchString(line) {
			continue
		}

		if match := anyPricePattern.FindString(line); match != "" {
			if amount, ok := parsePrice(match); ok {
				return strconv.FormatFloat(amount, 'f', 2, 64)
			}
		}
	}

	return ""
}

func findDate(text string) string {
	if m := ymdDatePattern.FindStringSubmatch(text); m != nil {
		if date, ok := buildDate(m[1], m[2], m[3]); ok {
			return date
		}
	}

	if m := mdyDatePattern.FindStringSubmatch(text); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		if date, ok := buildDate(year, m[1], m[2]); ok {
			return date
		}
	}

	return ""
}

// findLineItems picks out lines ending in a price, skipping totals, tax and
// payment lines.
func findLineItems(text string) []any {
	var items []any

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		loc := pricePattern.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}

		amount, ok := parsePrice(line[loc[2]:loc[3]])
		if !ok || amount <= 0 || amount >= 10000 {
			continue
		}

		description := strings.TrimSpace(line[:loc[0]])
		if description == "" || nonItemPattern.MatchString(description) {
			continue
		}

		items = append(items, map[string]any{
			"description": description,
			"amount":      strconv.FormatFloat(amount, 'f', 2, 64),
		})
	}

	return items
}

func parsePrice(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", ".")

	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return amount, true
}

func buildDate(year, month, day string) (string, bool) {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}

	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}

	return fmt.Sprintf("%s-%02d-%02d", year, m, d), true
}
