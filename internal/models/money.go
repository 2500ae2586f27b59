package models

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/currency"
)

// Money is an amount in minor units (cents) of a single currency.
// Arithmetic across currencies is a programming error; convert explicitly first.
type Money struct {
	Amount   int64
	Currency currency.Unit
}

// USD is the platform's default listing currency.
var USD = currency.USD

func NewMoney(amount int64, unit currency.Unit) Money {
	return Money{Amount: amount, Currency: unit}
}

// Add returns m+other, failing if the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency.String() != other.Currency.String() {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// MulQuantity returns the line total for a quantity of m.
func (m Money) MulQuantity(quantity int) Money {
	return Money{Amount: m.Amount * int64(quantity), Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

type moneyJSON struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON encodes the currency as its ISO code, since currency.Unit
// has no JSON representation of its own.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.Amount, Currency: m.Currency.String()})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	unit, err := currency.ParseISO(raw.Currency)
	if err != nil {
		return fmt.Errorf("currency[%s] is not valid: %w", raw.Currency, err)
	}

	m.Amount = raw.Amount
	m.Currency = unit
	return nil
}
