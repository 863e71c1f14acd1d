package ledger

import "github.com/shopspring/decimal"

var secondsPerDay = decimal.NewFromInt(86400)

// ElapsedAge advances age by the balance held since the last update, in
// fractional balance-days: age + (now-updatedAt)/86400 * balance.
func ElapsedAge(age, balance decimal.Decimal, updatedAt, now int64) decimal.Decimal {
	if now <= updatedAt || balance.IsZero() {
		return age
	}
	days := decimal.NewFromInt(now - updatedAt).Div(secondsPerDay)
	return age.Add(days.Mul(balance))
}

// RemoveAge splits off the age carried by `removed` units of `balance`,
// drawing uniformly across the age-weighted history: removed/balance * age.
// A zero balance is a caller precondition violation; the removal is skipped
// so the derived field keeps its pre-event value.
func RemoveAge(age, balance, removed decimal.Decimal) (taken, remaining decimal.Decimal) {
	if balance.IsZero() {
		return decimal.Zero, age
	}
	taken = age.Div(balance).Mul(removed)
	return taken, age.Sub(taken)
}
