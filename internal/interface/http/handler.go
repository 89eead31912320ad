package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/faq-chatbot/internal/domain/conversation"
	"github.com/yanqian/faq-chatbot/internal/domain/faq"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	faqSvc  faq.Service
	convSvc conversation.Service
	logger  *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(faqSvc faq.Service, convSvc conversation.Service, logger *slog.Logger) *Handler {
	return &Handler{
		faqSvc:  faqSvc,
		convSvc: convSvc,
		logger:  logger.With("component", "http.handler"),
	}
}

type askRequest struct {
	Question string `json:"question"`
}

type feedbackRequest struct {
	Helpful *bool `json:"helpful"`
}

type reloadRequest struct {
	Audience faq.Audience `json:"audience"`
}

// streamFrame is one SSE event of a streamed answer.
type streamFrame struct {
	Delta     string                    `json:"delta,omitempty"`
	Completed bool                      `json:"completed"`
	Result    *conversation.AskResponse `json:"result,omitempty"`
}

// StartSession validates the intake form and opens a chat session.
func (h *Handler) StartSession(c *gin.Context) {
	var req conversation.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.convSvc.Start(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Ask answers one question within the caller's session.
func (h *Handler) Ask(c *gin.Context) {
	claims, req, ok := h.bindAsk(c)
	if !ok {
		return
	}

	resp, err := h.convSvc.Ask(c.Request.Context(), claims.SessionID, req.Question)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AskStream answers a question and streams it word by word using Server-Sent Events.
func (h *Handler) AskStream(c *gin.Context) {
	claims, req, ok := h.bindAsk(c)
	if !ok {
		return
	}

	resp, err := h.convSvc.Ask(c.Request.Context(), claims.SessionID, req.Question)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "stream_unsupported", "streaming not supported", nil))
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	for _, chunk := range conversation.StreamChunks(resp.Answer) {
		if ctx.Err() != nil {
			return
		}
		h.writeFrame(c, flusher, streamFrame{Delta: chunk})
	}
	h.writeFrame(c, flusher, streamFrame{Completed: true, Result: &resp})
}

func (h *Handler) writeFrame(c *gin.Context, flusher http.Flusher, frame streamFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("marshal frame failed", "error", err)
		return
	}
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(payload)
	c.Writer.Write([]byte("\n\n"))
	flusher.Flush()
}

func (h *Handler) bindAsk(c *gin.Context) (conversation.Claims, askRequest, bool) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing session", nil))
		return conversation.Claims{}, askRequest{}, false
	}
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return conversation.Claims{}, askRequest{}, false
	}
	return claims, req, true
}

// Feedback records whether the last answer helped.
func (h *Handler) Feedback(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing session", nil))
		return
	}
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.convSvc.Feedback(c.Request.Context(), claims.SessionID, req.Helpful)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Trending returns the most frequently matched tags for an audience.
func (h *Handler) Trending(c *gin.Context) {
	audience := faq.Audience(c.Query("audience"))
	items, err := h.faqSvc.Trending(c.Request.Context(), audience)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": items})
}

// Reload forces the dataset of one audience, or all of them, to be re-read.
func (h *Handler) Reload(c *gin.Context) {
	var req reloadRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
			return
		}
	}

	audiences := faq.Audiences()
	if req.Audience != "" {
		audiences = []faq.Audience{req.Audience}
	}
	results := make([]faq.ReloadResult, 0, len(audiences))
	for _, audience := range audiences {
		res, err := h.faqSvc.Reload(c.Request.Context(), audience)
		if err != nil {
			abortWithError(c, fromDomainError(err))
			return
		}
		h.logger.Info("faq dataset reloaded", "audience", res.Audience, "rebuilt", res.Rebuilt, "fingerprint", res.Fingerprint)
		results = append(results, res)
	}
	c.JSON(http.StatusOK, gin.H{"reloaded": results})
}
