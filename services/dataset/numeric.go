// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// amountColumnNames and invoiceColumnNames drive the heuristic column
// detection. Matching is on the lowered, trimmed header.
var (
	amountColumnNames  = []string{"monto", "total", "amount", "total amount"}
	invoiceColumnNames = []string{"invoice #", "invoice number", "n° factura", "factura", "invoice id"}
	vendorColumnNames  = []string{"vendor", "vendor name", "proveedor", "supplier"}
)

// AmountColumn returns the detected monetary column, or "" when the
// schema has none.
func AmountColumn(columns []string) string {
	return matchColumn(columns, amountColumnNames)
}

// InvoiceColumn returns the detected invoice-number column, or "".
func InvoiceColumn(columns []string) string {
	return matchColumn(columns, invoiceColumnNames)
}

// VendorColumn returns the detected vendor column, or "".
func VendorColumn(columns []string) string {
	return matchColumn(columns, vendorColumnNames)
}

func matchColumn(columns, candidates []string) string {
	for _, col := range columns {
		lowered := strings.ToLower(strings.TrimSpace(col))
		for _, want := range candidates {
			if lowered == want {
				return col
			}
		}
	}
	return ""
}

// ParseAmount converts a cell to a number, tolerating currency symbols
// and thousands separators. Non-numeric values yield (0, false); they
// contribute 0 to sums and still count toward average denominators.
func ParseAmount(raw string) (float64, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatMoney renders a value the way the dashboard shows it:
// "$1,234.56".
func FormatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]
	var b strings.Builder
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	if neg {
		return fmt.Sprintf("-$%s%s", b.String(), frac)
	}
	return fmt.Sprintf("$%s%s", b.String(), frac)
}
