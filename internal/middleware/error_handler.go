package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/diegonaranjo/fiserv-gateway/internal/fiserv"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MapError translates gateway and database errors into HTTP responses.
// Signature failures answer 403 without detail so the response leaks
// nothing about the expected hash.
func MapError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, fiserv.ErrInvalidSignature):
		return http.StatusForbidden, ErrorResponse{Error: "invalid signature"}
	case errors.Is(err, fiserv.ErrTransactionNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "transaction not found"}
	case errors.Is(err, fiserv.ErrMissingReference),
		errors.Is(err, fiserv.ErrMissingApprovalCode),
		errors.Is(err, fiserv.ErrMissingRequiredFields),
		errors.Is(err, fiserv.ErrInvalidAmountFormat):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, fiserv.ErrInvalidTransactionState):
		return http.StatusConflict, ErrorResponse{Error: err.Error()}
	case errors.Is(err, fiserv.ErrUnsupportedCardBrand):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()}
	case errors.Is(err, fiserv.ErrUnconfiguredEnvironment),
		errors.Is(err, fiserv.ErrHashGeneration):
		log.Error().Err(err).Msg("gateway configuration error")
		return http.StatusInternalServerError, ErrorResponse{Error: "gateway configuration error"}
	}
	return MapDBError(err)
}

func MapDBError(err error) (int, ErrorResponse) {
	if errors.Is(err, pgx.ErrNoRows) {
		return http.StatusNotFound, ErrorResponse{Error: "resource not found"}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return http.StatusConflict, ErrorResponse{
				Error:   "resource already exists",
				Details: pgErr.Detail,
			}
		case "23503": // foreign_key_violation
			return http.StatusBadRequest, ErrorResponse{
				Error:   "referenced resource does not exist",
				Details: pgErr.Detail,
			}
		case "23514": // check_violation
			return http.StatusBadRequest, ErrorResponse{
				Error:   "constraint violation",
				Details: pgErr.Detail,
			}
		}
	}

	log.Error().Err(err).Msg("unhandled database error")
	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
}

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			status, resp := MapError(err)
			c.JSON(status, resp)
		}
	}
}
