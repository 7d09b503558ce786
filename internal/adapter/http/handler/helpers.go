package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapDomainError picks.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, mapDomainError(err), message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrCardNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMutationInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoCandidatesAccepted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStatementParser):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrCardRequired),
		errors.Is(err, domain.ErrUnexpectedCard),
		errors.Is(err, domain.ErrInvalidInstallments),
		errors.Is(err, domain.ErrInvalidAmountMode),
		errors.Is(err, domain.ErrInvalidClosingDay),
		errors.Is(err, domain.ErrInvalidDueDay),
		errors.Is(err, domain.ErrInvalidCardName),
		errors.Is(err, domain.ErrInvalidDescription),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidDay),
		errors.Is(err, domain.ErrInvalidCycle):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// currentUser returns the authenticated user's ID, writing 401 when the
// request carries none.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := domain.UserFromContext(r.Context())
	if !ok || user.ID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return "", false
	}
	return user.ID, true
}

// pathCycle reads the {year}/{month} URL parameters.
func pathCycle(r *http.Request) (domain.Cycle, error) {
	return cycleFrom(chi.URLParam(r, "year"), chi.URLParam(r, "month"))
}

// queryCycle reads the year and month query parameters. Both absent means
// no cycle.
func queryCycle(r *http.Request) (*domain.Cycle, error) {
	q := r.URL.Query()
	if q.Get("year") == "" && q.Get("month") == "" {
		return nil, nil
	}
	c, err := cycleFrom(q.Get("year"), q.Get("month"))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func cycleFrom(year, month string) (domain.Cycle, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return domain.Cycle{}, domain.ErrInvalidCycle
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return domain.Cycle{}, domain.ErrInvalidCycle
	}
	return domain.ValidateCycle(y, m)
}
