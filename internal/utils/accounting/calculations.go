package accounting

import (
	"fmt"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceEpsilon is the tolerance, in the base currency's minor unit,
// within which a journal's debit and credit sums must agree at post time.
var BalanceEpsilon = decimal.NewFromFloat(0.01)

// SumLines returns the total debit and credit amounts of a set of lines.
func SumLines(lines []domain.JournalLine) (debits, credits decimal.Decimal) {
	debits = decimal.Zero
	credits = decimal.Zero
	for _, line := range lines {
		debits = debits.Add(line.Debit)
		credits = credits.Add(line.Credit)
	}
	return debits, credits
}

// CheckBalanced verifies the hard posting invariant: the debit and
// credit sums of the lines differ by no more than BalanceEpsilon.
func CheckBalanced(lines []domain.JournalLine) error {
	debits, credits := SumLines(lines)
	if debits.Sub(credits).Abs().GreaterThan(BalanceEpsilon) {
		return fmt.Errorf("%w: debits sum is %s and credits sum is %s",
			apperrors.ErrImbalancedJournal, debits.String(), credits.String())
	}
	return nil
}

// SignedAmount expresses a line's effect on its account's normal-side
// balance: a debit increases a debit-normal account and decreases a
// credit-normal one, and vice versa.
func SignedAmount(line domain.JournalLine, normal domain.BalanceSide) decimal.Decimal {
	if normal == domain.DebitSide {
		return line.Debit.Sub(line.Credit)
	}
	return line.Credit.Sub(line.Debit)
}

// ClosingBalance applies the normal-side formula to a period:
// debit-normal accounts close at opening + debit - credit,
// credit-normal accounts at opening - debit + credit.
func ClosingBalance(normal domain.BalanceSide, opening, debit, credit decimal.Decimal) decimal.Decimal {
	if normal == domain.DebitSide {
		return opening.Add(debit).Sub(credit)
	}
	return opening.Sub(debit).Add(credit)
}

// ValidateLine checks the structural rules of a single journal line:
// amounts are non-negative and exactly one side is set.
func ValidateLine(line domain.JournalLine) error {
	if line.Debit.IsNegative() || line.Credit.IsNegative() {
		return fmt.Errorf("%w: line amounts must not be negative for account %s",
			apperrors.ErrInvalidJournal, line.AccountID)
	}
	if line.Debit.IsPositive() && line.Credit.IsPositive() {
		return fmt.Errorf("%w: line for account %s has both debit and credit set",
			apperrors.ErrInvalidJournal, line.AccountID)
	}
	if line.Debit.IsZero() && line.Credit.IsZero() {
		return fmt.Errorf("%w: line for account %s has neither debit nor credit set",
			apperrors.ErrInvalidJournal, line.AccountID)
	}
	return nil
}

// ReversedLines returns mirror lines with each debit and credit
// swapped, used to build the reversing journal of a void.
func ReversedLines(lines []domain.JournalLine) []domain.JournalLine {
	reversed := make([]domain.JournalLine, len(lines))
	for i, line := range lines {
		mirror := line
		mirror.Debit = line.Credit
		mirror.Credit = line.Debit
		reversed[i] = mirror
	}
	return reversed
}
