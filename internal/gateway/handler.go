package gateway

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spotsnack/backend/internal/bridge"
	"github.com/spotsnack/backend/internal/models"
)

// Invoker runs one interpreter invocation to its terminal result
type Invoker interface {
	Invoke(ctx context.Context, input []byte) bridge.Result
}

// Handler handles the interpreter-backed HTTP routes
type Handler struct {
	invoker Invoker
	tracer  trace.Tracer
}

// NewHandler creates a new gateway handler
func NewHandler(invoker Invoker) *Handler {
	return &Handler{
		invoker: invoker,
		tracer:  otel.Tracer("gateway"),
	}
}

// run encodes a validated request, invokes the interpreter and maps the result
// to an HTTP status and body.
func (h *Handler) run(ctx context.Context, req bridge.Request, userID string) (int, any) {
	ctx, span := h.tracer.Start(ctx, "gateway.run")
	defer span.End()

	span.SetAttributes(attribute.String("request.mode", string(req.Mode())))
	if userID != "" {
		span.SetAttributes(attribute.String("user.id", userID))
	}

	input, err := bridge.Encode(req)
	if err != nil {
		span.RecordError(err)
		log.Printf(`{"level":"error","message":"Failed to encode envelope","mode":"%s","error":"%v"}`, req.Mode(), err)
		return http.StatusInternalServerError, models.ErrorResponse{Error: "internal_error", Details: err.Error()}
	}

	result := h.invoker.Invoke(ctx, input)
	span.SetAttributes(attribute.String("result.kind", result.Kind()))

	if err, ok := result.(error); ok {
		span.RecordError(err)
		log.Printf(`{"level":"error","message":"Interpreter invocation failed","mode":"%s","kind":"%s","user_id":"%s","error":%q}`,
			req.Mode(), result.Kind(), userID, err.Error())
	}

	return statusFor(result)
}

// statusFor converts a terminal result into the caller-facing response
func statusFor(result bridge.Result) (int, any) {
	switch r := result.(type) {
	case bridge.Decoded:
		return http.StatusOK, r.Value
	case bridge.SpawnFailure:
		return http.StatusInternalServerError, models.ErrorResponse{
			Error:   models.ErrSpawnFailed,
			Details: r.Err.Error(),
		}
	case bridge.ProcessFailure:
		return http.StatusInternalServerError, models.ProcessFailureResponse{
			Error:    models.ErrChatbotFailed,
			ExitCode: r.ExitCode,
			Stderr:   r.Diagnostics,
			TimedOut: r.TimedOut,
		}
	case bridge.DecodeFailure:
		return http.StatusInternalServerError, models.DecodeFailureResponse{
			Error: models.ErrInvalidJSON,
			Raw:   string(r.Raw),
		}
	default:
		return http.StatusInternalServerError, models.ErrorResponse{Error: "internal_error"}
	}
}

// detach keeps request-scoped values such as the trace span but drops cancellation:
// a client disconnect does not stop an invocation that is already running.
func detach(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}
