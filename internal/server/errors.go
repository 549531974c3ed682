package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/persenaut/challenges/internal/challenge"
)

const (
	msgInvalidBody = "Body inválido. Debe ser JSON."
	msgInternal    = "Error interno del servidor"
	msgExhausted   = "No se pudo generar un reto único tras %d intentos"
	msgGeneration  = "El modelo no pudo generar el reto"
	msgTimeout     = "La solicitud excedió el tiempo de espera"

	maxHistoryLimit = 50
)

// statusFor maps a handler error to an HTTP status and public message.
func statusFor(err error) (int, string) {
	var (
		validation *challenge.ValidationError
		exhausted  *challenge.UniquenessExhausted
		generation *challenge.GenerationFailure
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.As(err, &exhausted):
		return http.StatusUnprocessableEntity, fmt.Sprintf(msgExhausted, exhausted.Attempts)
	case errors.As(err, &generation):
		return http.StatusBadGateway, msgGeneration
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, msgTimeout
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// writeError renders err. Details are only exposed in diagnostics mode.
func (s *Server) writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	body := gin.H{"error": msg}

	var exhausted *challenge.UniquenessExhausted
	if errors.As(err, &exhausted) {
		body["lastAttempt"] = exhausted.LastAttempt
		body["attempts"] = exhausted.Attempts
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
		if s.cfg.Diagnostics {
			body["detalle"] = err.Error()
		}
	}
	c.JSON(status, body)
}
