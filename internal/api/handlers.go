package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khanglvm/prompt-dispatch/internal/dispatch"
)

type executeRequest struct {
	Prompt    string            `json:"prompt" binding:"required"`
	SessionID string            `json:"session_id" binding:"required"`
	Params    map[string]string `json:"params"`
}

type executeMultipleRequest struct {
	Prompts   []string `json:"prompts" binding:"required,min=1,dive,required"`
	SessionID string   `json:"session_id" binding:"required"`
}

type functionInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Params      []string `json:"params,omitempty"`
}

func (s *Server) execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.dispatcher.Execute(c.Request.Context(), dispatch.Request{
		Prompt:    req.Prompt,
		SessionID: req.SessionID,
		Params:    req.Params,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) executeMultiple(c *gin.Context) {
	var req executeMultipleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.dispatcher.ExecuteMultiple(c.Request.Context(), req.Prompts, req.SessionID)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) functions(c *gin.Context) {
	entries := s.catalog.Entries()
	out := make([]functionInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, functionInfo{
			Name:        string(e.ID),
			Description: e.Description,
			Params:      e.Params,
		})
	}
	c.JSON(http.StatusOK, gin.H{"functions": out})
}

func (s *Server) sessionHistory(c *gin.Context) {
	id := c.Param("id")

	history, err := s.dispatcher.History(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": id, "session_history": history})
}

// fail maps service errors to status codes.
func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, dispatch.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
