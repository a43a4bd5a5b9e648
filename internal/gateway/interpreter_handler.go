package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/spotsnack/backend/internal/auth"
	"github.com/spotsnack/backend/internal/bridge"
	"github.com/spotsnack/backend/internal/models"
)

const placeIndexDetails = "Send 'placeIndex' or 'place_index' as a number (1-based)."

// ChatRequestBody represents a chat request
type ChatRequestBody struct {
	Message string          `json:"message" binding:"required" example:"Where can I get vegan food?"`
	History json.RawMessage `json:"history,omitempty" swaggertype:"array,object"`
}

// VibeRequestBody represents a vibe request; place_index is accepted as an alias
type VibeRequestBody struct {
	PlaceIndex      json.RawMessage `json:"placeIndex,omitempty" swaggertype:"integer" example:"3"`
	PlaceIndexSnake json.RawMessage `json:"place_index,omitempty" swaggertype:"integer"`
}

// Chat godoc
// @Summary Chat with the assistant
// @Description Answers a chat message about nearby places. The reply object is produced by the chatbot process.
// @Tags interpreter
// @Accept json
// @Produce json
// @Param request body ChatRequestBody true "Message and optional history"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ProcessFailureResponse
// @Router /chat [post]
func (h *Handler) Chat(c *gin.Context) {
	var body ChatRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrMessageRequired})
		return
	}

	req, err := body.toRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrMessageRequired})
		return
	}

	status, payload := h.run(detach(c), req, auth.UserID(c))
	c.JSON(status, payload)
}

// Vibe godoc
// @Summary Describe the vibe of a place
// @Description Generates a short vibe description for the place at a 1-based index.
// @Tags interpreter
// @Accept json
// @Produce json
// @Param request body VibeRequestBody true "Place index (1-based)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ProcessFailureResponse
// @Router /vibe [post]
func (h *Handler) Vibe(c *gin.Context) {
	var body VibeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: models.ErrPlaceIndexRequired, Details: placeIndexDetails})
		return
	}

	req, err := body.toRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: models.ErrPlaceIndexRequired, Details: placeIndexDetails})
		return
	}

	status, payload := h.run(detach(c), req, auth.UserID(c))
	c.JSON(status, payload)
}

func (b ChatRequestBody) toRequest() (bridge.ChatRequest, error) {
	req := bridge.ChatRequest{
		Message: b.Message,
		History: parseHistory(b.History),
	}
	if err := req.Validate(); err != nil {
		return bridge.ChatRequest{}, err
	}
	return req, nil
}

// parseHistory keeps the entries whose role and content are both strings.
// The interpreter tolerates a malformed history, so neither do we reject one.
func parseHistory(raw json.RawMessage) []bridge.Turn {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	history := make([]bridge.Turn, 0, len(entries))
	for _, entry := range entries {
		var fields map[string]any
		if err := json.Unmarshal(entry, &fields); err != nil {
			continue
		}
		role, roleOK := fields["role"].(string)
		content, contentOK := fields["content"].(string)
		if roleOK && contentOK {
			history = append(history, bridge.Turn{Role: role, Content: content})
		}
	}
	return history
}

func (b VibeRequestBody) toRequest() (bridge.VibeRequest, error) {
	raw := b.PlaceIndex
	if isAbsent(raw) {
		raw = b.PlaceIndexSnake
	}

	idx, err := parsePlaceIndex(raw)
	if err != nil {
		return bridge.VibeRequest{}, err
	}

	req := bridge.VibeRequest{PlaceIndex: idx}
	if err := req.Validate(); err != nil {
		return bridge.VibeRequest{}, err
	}
	return req, nil
}

var errPlaceIndex = &bridge.ValidationError{Field: "place_index", Reason: "must be a JSON number"}

// parsePlaceIndex accepts only JSON numbers with an integral value; strings such as "3" are rejected.
func parsePlaceIndex(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if isAbsent(raw) {
		return 0, errPlaceIndex
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return 0, errPlaceIndex
	}

	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, errors.Join(errPlaceIndex, err)
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, errPlaceIndex
	}
	return int(f), nil
}

func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
