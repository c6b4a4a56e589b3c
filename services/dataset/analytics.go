// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import (
	"math"
	"strings"
)

// DefaultAnomalySigma is the Z-score threshold for flagging a record's
// amount as anomalous.
const DefaultAnomalySigma = 2.0

// maxAnomalyScore caps the reported Z-score when the rest of the column
// is constant and the deviation is therefore unbounded in sigma terms.
const maxAnomalyScore = 10.0

// Anomaly is one flagged record: its Z-score and a 0-10 risk scale for
// display (a score at 4 sigma or beyond pins the risk at 10).
type Anomaly struct {
	Record Record  `json:"record"`
	Score  float64 `json:"_anomaly_score"`
	Risk   float64 `json:"risk"`
}

// AnomalyReport summarizes one anomaly scan.
type AnomalyReport struct {
	AmountColumn string    `json:"column_used"`
	Mean         float64   `json:"mean"`
	Threshold    float64   `json:"threshold"`
	Anomalies    []Anomaly `json:"anomalies"`
}

// DetectAnomalies flags records whose amount sits more than sigma
// standard deviations above the rest of the column. The score for each
// record is a leave-one-out Z-score: the record's deviation from the
// mean and standard deviation of the other values. A single extreme
// value inflates a global standard deviation enough to hide itself;
// excluding the candidate avoids that masking.
//
// A missing amount column, non-numeric data or zero-variance data
// yields an empty report, not an error. Non-numeric cells are treated
// as 0, like everywhere else in the summary math.
func DetectAnomalies(records []Record, columns []string, sigma float64) AnomalyReport {
	report := AnomalyReport{AmountColumn: AmountColumn(columns)}
	if report.AmountColumn == "" || len(records) < 2 {
		return report
	}
	if sigma <= 0 {
		sigma = DefaultAnomalySigma
	}

	values := make([]float64, len(records))
	var sum, sumSq float64
	for i, rec := range records {
		v, _ := ParseAmount(rec.Values[report.AmountColumn])
		values[i] = v
		sum += v
		sumSq += v * v
	}
	n := float64(len(values))
	mean := sum / n
	report.Mean = round2(mean)

	globalVariance := sumSq/n - mean*mean
	if globalVariance <= 0 {
		// Constant column: nothing to flag.
		return report
	}
	report.Threshold = round2(mean + sigma*math.Sqrt(globalVariance))

	for i, v := range values {
		meanOthers := (sum - v) / (n - 1)
		varOthers := (sumSq-v*v)/(n-1) - meanOthers*meanOthers
		if varOthers < 0 {
			varOthers = 0
		}
		stdOthers := math.Sqrt(varOthers)

		if v <= meanOthers+sigma*stdOthers || v <= meanOthers {
			continue
		}
		score := maxAnomalyScore
		if stdOthers > 0 {
			score = math.Min(maxAnomalyScore, (v-meanOthers)/stdOthers)
		}
		report.Anomalies = append(report.Anomalies, Anomaly{
			Record: records[i].Clone(),
			Score:  round2(score),
			Risk:   round2(math.Min(10, score/4*10)),
		})
	}
	return report
}

// duplicateKey builds the normalized dedup key: (vendor, invoice) when
// a vendor column exists, the invoice number alone otherwise. Empty key
// parts still participate so blank invoices group together.
func duplicateKey(rec Record, vendorCol, invoiceCol string) string {
	invoice := strings.ToLower(strings.TrimSpace(rec.Values[invoiceCol]))
	if vendorCol == "" {
		return invoice
	}
	vendor := strings.ToLower(strings.TrimSpace(rec.Values[vendorCol]))
	return vendor + "\x00" + invoice
}

// FindDuplicates returns every record belonging to a duplicate set,
// grouped by key in first-seen order. The first occurrence of each key
// is the canonical one and is included in the result so the client can
// show the whole set.
func FindDuplicates(s *Staging) []Record {
	invoiceCol := InvoiceColumn(s.Columns)
	if invoiceCol == "" {
		return nil
	}
	vendorCol := VendorColumn(s.Columns)

	byKey := make(map[string][]Record)
	var order []string
	for _, rec := range s.Records {
		key := duplicateKey(rec, vendorCol, invoiceCol)
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], rec)
	}

	var out []Record
	for _, key := range order {
		if group := byKey[key]; len(group) > 1 {
			out = append(out, group...)
		}
	}
	return out
}

// duplicateRowIDs lists the non-first occurrences slated for cleanup.
func duplicateRowIDs(s *Staging) []int {
	invoiceCol := InvoiceColumn(s.Columns)
	if invoiceCol == "" {
		return nil
	}
	vendorCol := VendorColumn(s.Columns)

	seen := make(map[string]bool)
	var extra []int
	for _, rec := range s.Records {
		key := duplicateKey(rec, vendorCol, invoiceCol)
		if seen[key] {
			extra = append(extra, rec.ID)
		}
		seen[key] = true
	}
	return extra
}
