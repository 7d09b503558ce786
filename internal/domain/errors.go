package domain

import "errors"

var (
	// Entry errors
	ErrEntryNotFound       = errors.New("entry not found")
	ErrInvalidAmount       = errors.New("amount must not be negative")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidKind         = errors.New("invalid entry kind")
	ErrInvalidStatus       = errors.New("invalid entry status")
	ErrCardRequired        = errors.New("card expense requires a card")
	ErrUnexpectedCard      = errors.New("only card expenses may reference a card")
	ErrInvalidInstallments = errors.New("invalid installment count")
	ErrInvalidAmountMode   = errors.New("invalid amount mode")

	// Card errors
	ErrCardNotFound      = errors.New("card not found")
	ErrInvalidClosingDay = errors.New("closing day must be between 1 and 31")
	ErrInvalidDueDay     = errors.New("due day must be between 1 and 31")

	// Cycle and mutation errors
	ErrInvalidCycle         = errors.New("invalid billing cycle")
	ErrMutationInFlight     = errors.New("another change to this series or invoice is in progress")
	ErrNoCandidatesAccepted = errors.New("no statement line belongs to the selected invoice")
	ErrStatementParser      = errors.New("statement parser failed")
)
