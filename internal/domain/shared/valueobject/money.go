package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	BRL Currency = "BRL" // Brazilian Real (default)
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = BRL

// minorUnitExp is the decimal exponent of one minor unit (cent)
const minorUnitExp = -2

// Money is an immutable amount held in integer minor units (cents).
// Arithmetic never goes through floating point.
type Money struct {
	cents    int64
	currency Currency
}

// NewMoney creates Money from minor units in the given currency
func NewMoney(cents int64, currency Currency) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{cents: cents, currency: currency}
}

// Cents creates Money in the default currency
func Cents(cents int64) Money {
	return Money{cents: cents, currency: DefaultCurrency}
}

// FromDecimal converts a major-unit decimal (e.g. 1234.567) to Money,
// rounding half away from zero to the nearest cent.
func FromDecimal(amount decimal.Decimal, currency Currency) Money {
	return NewMoney(amount.Shift(-minorUnitExp).Round(0).IntPart(), currency)
}

// ParseMoney parses a major-unit string such as "1500.00"
func ParseMoney(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return FromDecimal(d, currency), nil
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return NewMoney(0, currency)
}

// Cents returns the amount in minor units
func (m Money) Cents() int64 {
	return m.cents
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// Decimal returns the amount in major units
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.cents, minorUnitExp)
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.cents == 0
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.cents > 0
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.cents < 0
}

// Add returns the sum of both amounts
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{cents: m.cents + other.cents, currency: m.currency}, nil
}

// Subtract returns the difference of both amounts
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot subtract money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{cents: m.cents - other.cents, currency: m.currency}, nil
}

// Negate returns the amount with its sign flipped
func (m Money) Negate() Money {
	return Money{cents: -m.cents, currency: m.currency}
}

// Equals returns true if both amount and currency match
func (m Money) Equals(other Money) bool {
	return m.cents == other.cents && m.currency == other.currency
}

// String returns the amount in major units with the currency code
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(2), m.currency)
}

// Format renders the amount with the currency symbol and the number
// conventions of the given locale, e.g. "R$ 1.234,56" for pt-BR.
func (m Money) Format(tag language.Tag) string {
	p := message.NewPrinter(tag)
	amount := number.Decimal(m.Decimal().InexactFloat64(), number.Scale(2))
	unit, err := currency.ParseISO(string(m.currency))
	if err != nil {
		return p.Sprintf("%s %v", m.currency, amount)
	}
	return p.Sprintf("%v %v", currency.Symbol(unit), amount)
}

// moneyJSON is the wire form of Money
type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Cents    int64           `json:"cents"`
	Currency Currency        `json:"currency"`
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.Decimal(), Cents: m.cents, Currency: m.currency})
}

// UnmarshalJSON implements json.Unmarshaler. Cents take precedence when present.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   *decimal.Decimal `json:"amount"`
		Cents    *int64           `json:"cents"`
		Currency Currency         `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Cents != nil:
		*m = NewMoney(*raw.Cents, raw.Currency)
	case raw.Amount != nil:
		*m = FromDecimal(*raw.Amount, raw.Currency)
	default:
		return errors.New("money requires amount or cents")
	}
	return nil
}

// Value implements driver.Valuer; only the minor units are stored
func (m Money) Value() (driver.Value, error) {
	return m.cents, nil
}

// Scan implements sql.Scanner
func (m *Money) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*m = Zero(DefaultCurrency)
	case int64:
		*m = Cents(v)
	case []byte:
		var cents int64
		if _, err := fmt.Sscan(string(v), &cents); err != nil {
			return fmt.Errorf("cannot scan %q into Money: %w", v, err)
		}
		*m = Cents(cents)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	return nil
}
