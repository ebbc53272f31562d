package models

import "github.com/shopspring/decimal"

// roundCents rounds a monetary amount to two decimals.
func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// mulCents multiplies two amounts with decimal precision and rounds to cents.
func mulCents(a, b float64) float64 {
	return decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// sumCents adds amounts with decimal precision and rounds to cents.
func sumCents(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}
