package httpapi

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/elee1766/polaris/src/polarisagent"
	"github.com/elee1766/polaris/src/storage"
)

type sendMessageRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
	Message        string `json:"message" binding:"required"`
}

type cancelRequest struct {
	ProjectID string `json:"projectId" binding:"required"`
}

type createProjectRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

func (s *Server) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sent, err := s.messages.SendMessage(c.Request.Context(), req.ConversationID, req.Message)
	if errors.Is(err, storage.ErrConversationGone) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	if err != nil {
		s.logger.Error("failed to send message", "conversation_id", req.ConversationID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messageId": sent.MessageID})
}

func (s *Server) cancelMessages(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ids, err := s.messages.CancelProject(c.Request.Context(), req.ProjectID)
	if err != nil {
		s.logger.Error("failed to cancel messages", "project_id", req.ProjectID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel messages"})
		return
	}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No processing messages to cancel"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messageIds": ids})
}

func (s *Server) createProjectWithPrompt(c *gin.Context) {
	owner := c.GetHeader(OwnerHeader)
	if owner == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing " + OwnerHeader + " header"})
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sent, err := s.messages.CreateProjectWithPrompt(c.Request.Context(), owner, req.Prompt)
	if errors.Is(err, polarisagent.ErrEmptyPrompt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.logger.Error("failed to create project", "owner_id", owner, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, sent)
}

type healthResponse struct {
	Status   string            `json:"status"`
	Uptime   string            `json:"uptime"`
	RSSBytes uint64            `json:"rssBytes"`
	CPU      float64           `json:"cpuPercent"`
	Platform string            `json:"platform,omitempty"`
	Checks   map[string]string `json:"checks,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}

	// Process stats are best effort
	if proc, err := process.NewProcessWithContext(c.Request.Context(), int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfoWithContext(c.Request.Context()); err == nil {
			resp.RSSBytes = mem.RSS
		}
		if cpu, err := proc.CPUPercentWithContext(c.Request.Context()); err == nil {
			resp.CPU = cpu
		}
	}
	if info, err := host.InfoWithContext(c.Request.Context()); err == nil {
		resp.Platform = info.Platform + " " + info.PlatformVersion
	}

	code := http.StatusOK
	if len(s.checkNames) > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		resp.Checks = make(map[string]string, len(s.checkNames))
		for _, name := range s.checkNames {
			if err := s.checks[name].HealthCheck(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	c.JSON(code, resp)
}
