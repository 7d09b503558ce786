// Package billing maps dated ledger entries to credit-card billing cycles,
// expands installment purchases into dated series, keeps those series
// consistent under forward edits and deletes, and derives virtual monthly
// invoices from raw card expenses.
//
// Every function here is pure and synchronous. Callers load the full entry
// and card sets, run these functions, and persist the result as one batch.
package billing
