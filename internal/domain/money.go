package domain

// Cents is a monetary amount in integer cents. Integer math keeps the
// valued-amount-equals-approved-amount comparison exact.
type Cents int64

// TaxRate is a whole-number VAT percentage.
type TaxRate int

// Recognized VAT rates.
const (
	TaxRateReduced4   TaxRate = 4
	TaxRateReduced10  TaxRate = 10
	TaxRateStandard21 TaxRate = 21
)

// Valid reports whether the rate is one of the recognized VAT rates.
func (r TaxRate) Valid() bool {
	return r == TaxRateReduced4 || r == TaxRateReduced10 || r == TaxRateStandard21
}

// WithTax returns excl * (1 + rate/100) rounded half-up to the cent.
func (r TaxRate) WithTax(excl Cents) Cents {
	total := int64(excl) * (100 + int64(r))
	if total >= 0 {
		return Cents((total + 50) / 100)
	}
	return Cents((total - 50) / 100)
}
