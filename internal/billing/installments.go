package billing

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
)

// AmountMode says how the template amount of an installment purchase is
// interpreted.
type AmountMode string

const (
	// AmountPerInstallment charges the template amount on every installment.
	AmountPerInstallment AmountMode = "per_installment"
	// AmountTotal splits the template amount across all installments.
	AmountTotal AmountMode = "total"
)

// Valid reports whether m is a known mode.
func (m AmountMode) Valid() bool {
	return m == AmountPerInstallment || m == AmountTotal
}

// IDs supplies identifiers for generated entries and series.
// Nil functions fall back to DefaultIDs.
type IDs struct {
	Entry func() string
	Group func() string
}

// DefaultIDs uses ULIDs for entries and random UUIDs for series groups.
func DefaultIDs() IDs {
	return IDs{
		Entry: func() string { return ulid.Make().String() },
		Group: uuid.NewString,
	}
}

func (ids IDs) withDefaults() IDs {
	def := DefaultIDs()
	if ids.Entry == nil {
		ids.Entry = def.Entry
	}
	if ids.Group == nil {
		ids.Group = def.Group
	}
	return ids
}

// InstallmentAmount returns the amount charged on each installment.
func InstallmentAmount(amount decimal.Decimal, count int, mode AmountMode) decimal.Decimal {
	if count <= 1 || mode != AmountTotal {
		return amount.Round(2)
	}
	return amount.Div(decimal.NewFromInt(int64(count))).Round(2)
}

// Residual is what a total-mode split loses or gains to rounding:
// amount minus count times the rounded installment amount.
// It is always zero in per-installment mode.
func Residual(amount decimal.Decimal, count int, mode AmountMode) decimal.Decimal {
	if count <= 1 || mode != AmountTotal {
		return decimal.Zero
	}
	per := InstallmentAmount(amount, count, mode)
	return amount.Sub(per.Mul(decimal.NewFromInt(int64(count))))
}

// GenerateInstallments expands template into a monthly series of count
// entries. The template date is the first installment; entry i is dated i
// months later, clamped to the last day of short months. All entries share
// one fresh group ID. The rounding residual of a total-mode split is kept,
// not folded into any installment.
//
// A count of one or less yields a single entry with no installment link.
// Amounts are always rounded to cents.
// Entries without an ID get one from ids.
func GenerateInstallments(template domain.Entry, count int, mode AmountMode, ids IDs) []domain.Entry {
	ids = ids.withDefaults()

	base := template.Clone()
	base.Date = Noon(template.Date)
	base.Installment = nil

	if count <= 1 {
		base.Amount = template.Amount.Round(2)
		if base.ID == "" {
			base.ID = ids.Entry()
		}
		return []domain.Entry{base}
	}

	per := InstallmentAmount(template.Amount, count, mode)
	groupID := ids.Group()

	series := make([]domain.Entry, 0, count)
	for i := 0; i < count; i++ {
		e := base.Clone()
		e.ID = ids.Entry()
		e.Date = AddMonths(base.Date, i)
		e.Amount = per
		e.Installment = &domain.InstallmentLink{
			GroupID:  groupID,
			Position: i + 1,
			Count:    count,
		}
		series = append(series, e)
	}
	return series
}
