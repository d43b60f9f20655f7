package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// SuccessMessage is the body message of a successful invocation.
const SuccessMessage = "Successful lambda invocation"

// Response mirrors the API Gateway proxy response shape.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// RunFunc performs one collector run.
type RunFunc func(ctx context.Context) error

// Handler adapts a RunFunc to an invocation entry point.
type Handler struct {
	run    RunFunc
	logger *zap.Logger
}

func NewHandler(run RunFunc, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{run: run, logger: logger}
}

// Handle runs once. The event payload is ignored. A failed run is returned
// as an error so the invocation is reported as failed.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) (Response, error) {
	if h.run == nil {
		return Response{}, fmt.Errorf("run func is nil")
	}
	h.logger.Debug("invocation received", zap.Int("event_bytes", len(event)))

	if err := h.run(ctx); err != nil {
		h.logger.Error("invocation failed", zap.Error(err))
		return Response{}, err
	}

	body, err := json.Marshal(struct {
		Message string `json:"message"`
	}{Message: SuccessMessage})
	if err != nil {
		return Response{}, fmt.Errorf("marshal response body: %w", err)
	}
	return Response{StatusCode: http.StatusOK, Body: string(body)}, nil
}
