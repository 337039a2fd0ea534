package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"goclean/domain/core"
	apperrors "goclean/internal/errors"
)

// respondError maps domain errors onto HTTP statuses. Validation failures
// are the client's fault; anything unrecognized is a 500.
func (s *Server) respondError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	if code == "UNKNOWN" {
		code = codeForSentinel(err)
	}
	status := statusForCode(code)
	if status == http.StatusInternalServerError {
		s.logger.Error("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  code,
	})
}

func statusForCode(code string) int {
	switch code {
	case apperrors.CodeSessionNotFound, apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeUnsupportedFormat, apperrors.CodeEmptyDataset,
		apperrors.CodeInvalidOperation, apperrors.CodeInvalidParameters,
		apperrors.CodeInvalidType, apperrors.CodeNothingToUndo,
		apperrors.CodeNothingToRedo:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func codeForSentinel(err error) string {
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		return apperrors.CodeSessionNotFound
	case errors.Is(err, core.ErrColumnNotFound):
		return apperrors.CodeNotFound
	case errors.Is(err, core.ErrUnsupportedFormat):
		return apperrors.CodeUnsupportedFormat
	case errors.Is(err, core.ErrEmptyDataset):
		return apperrors.CodeEmptyDataset
	case errors.Is(err, core.ErrInvalidOperation):
		return apperrors.CodeInvalidOperation
	case errors.Is(err, core.ErrInvalidParameters):
		return apperrors.CodeInvalidParameters
	case errors.Is(err, core.ErrInvalidType):
		return apperrors.CodeInvalidType
	case errors.Is(err, core.ErrNothingToUndo):
		return apperrors.CodeNothingToUndo
	case errors.Is(err, core.ErrNothingToRedo):
		return apperrors.CodeNothingToRedo
	default:
		return apperrors.CodeInternalError
	}
}
