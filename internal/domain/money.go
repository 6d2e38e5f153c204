package domain

import "github.com/shopspring/decimal"

// MoneyScale — число знаков после запятой у денежных сумм в хранилище и API.
const MoneyScale = 2

// maxAmount — наибольшая сумма, которая помещается в NUMERIC(12,2).
var maxAmount = decimal.New(1, 10).Sub(decimal.New(1, -MoneyScale))

// ValidateAmount проверяет, что сумма хранится без округления:
// не больше двух знаков после запятой и не больше maxAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(MoneyScale)) {
		return ErrAmountScale
	}
	if amount.Abs().GreaterThan(maxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}
