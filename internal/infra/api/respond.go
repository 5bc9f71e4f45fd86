package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/infra/logging"
)

type errorBody struct {
	Message   string   `json:"message"`
	Field     string   `json:"field,omitempty"`
	Fields    []string `json:"fields,omitempty"`
	Limit     int64    `json:"limit,omitempty"`
	Used      int64    `json:"used,omitempty"`
	Requested int64    `json:"requested,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and reported as 500 without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		storageErr   *domain.StorageLimitError
		listingErr   *domain.ListingLimitError
		malformedErr *domain.MalformedInputError
		validateErrs validator.ValidationErrors
	)
	switch {
	case errors.As(err, &validateErrs):
		body := errorBody{Message: "validation failed"}
		for _, fe := range validateErrs {
			body.Fields = append(body.Fields, fmt.Sprintf("%s:%s", fe.Field(), fe.Tag()))
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.As(err, &malformedErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: err.Error(), Field: malformedErr.Field})
	case errors.As(err, &storageErr):
		writeJSON(w, http.StatusPaymentRequired, errorBody{
			Message:   "Storage limit exceeded. Please upgrade your plan or delete some properties.",
			Used:      storageErr.Used,
			Requested: storageErr.Requested,
			Limit:     storageErr.Limit,
		})
	case errors.As(err, &listingErr):
		writeJSON(w, http.StatusPaymentRequired, errorBody{
			Message: fmt.Sprintf("Listing limit reached. Your plan allows %d properties. Please upgrade.", listingErr.Limit),
			Limit:   int64(listingErr.Limit),
		})
	case errors.Is(err, domain.ErrSubscriptionExpired), errors.Is(err, domain.ErrPaymentFailed):
		writeJSON(w, http.StatusPaymentRequired, errorBody{Message: err.Error()})
	case errors.Is(err, domain.ErrPlanNotFound), errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Message: err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrLockNotAcquired):
		writeJSON(w, http.StatusConflict, errorBody{Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrMalformedInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
	default:
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "internal server error"})
	}
}

// decodeJSON reads a bounded JSON body into dst and runs struct validation.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", domain.ErrInvalidArgument)
		}
		return &domain.MalformedInputError{Field: "body", Err: err}
	}
	return s.validate.Struct(dst)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}
