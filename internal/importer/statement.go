// Package importer parses bank-statement PDFs into ledger transactions.
package importer

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"
)

// Line is one parsed statement entry. Amount follows the ledger convention:
// negative is money in, positive is money out. Statements print amounts
// unsigned and mark credits with a "CR" suffix, so credits are negated here.
type Line struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
}

// statementLine matches the common tabular statement layout:
//
//	2026-01-15  SYSCO BOSTON            432.10
//	2026-01-16  SQUARE DEPOSIT        1,204.55 CR
var statementLine = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(.+?)\s+(-?[\d,]+\.\d{2})(\s+CR)?\s*$`)

// ParseStatement extracts transaction lines from a statement PDF. Pages that
// fail text extraction are skipped; the statement is rejected only when no
// line in the whole document parses.
func ParseStatement(r io.ReaderAt, size int64) ([]Line, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	text, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, text); err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}

	lines, err := parseText(sb.String())
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// parseText scans extracted statement text for transaction lines.
func parseText(text string) ([]Line, error) {
	var lines []Line

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		m := statementLine.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}

		date, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			continue
		}

		amount, err := decimal.NewFromString(strings.ReplaceAll(m[3], ",", ""))
		if err != nil {
			continue
		}
		if m[4] != "" {
			// Credit: money in.
			amount = amount.Neg()
		}

		lines = append(lines, Line{
			Date:        date,
			Description: strings.TrimSpace(m[2]),
			Amount:      amount,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning statement text: %w", err)
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("no transaction lines found in statement")
	}
	return lines, nil
}
