package shared

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money renders amounts for display in the operator's currency.
type Money struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewMoney builds a formatter for the ISO currency code and BCP 47 locale.
func NewMoney(code, locale string) (*Money, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, err
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	return &Money{unit: unit, printer: message.NewPrinter(tag)}, nil
}

// Format renders d with the currency symbol, rounded to cents.
func (m *Money) Format(d decimal.Decimal) string {
	if m == nil {
		return d.StringFixed(2)
	}
	f, _ := d.Round(2).Float64()
	return m.printer.Sprint(currency.NarrowSymbol(m.unit.Amount(f)))
}
