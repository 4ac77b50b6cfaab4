package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
	"github.com/ajharbinger/intent-signal-hub/internal/services"
)

// ClassificationHandler handles ICP and persona classification
type ClassificationHandler struct {
	classificationService services.ClassificationService
}

// NewClassificationHandler creates a new classification handler with service injection
func NewClassificationHandler(classificationService services.ClassificationService) *ClassificationHandler {
	return &ClassificationHandler{
		classificationService: classificationService,
	}
}

// ClassifyCompany scores a company against the ICP profile
func (h *ClassificationHandler) ClassifyCompany(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Attributes == nil {
		req.Attributes = attr.Map{}
	}

	result := h.classificationService.ClassifyCompany(c.Request.Context(), req.SubjectID, req.Attributes)
	c.JSON(http.StatusOK, gin.H{
		"result":    result,
		"timestamp": time.Now(),
	})
}

// ClassifyContact picks the best matching persona for a contact
func (h *ClassificationHandler) ClassifyContact(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Attributes == nil {
		req.Attributes = attr.Map{}
	}

	result := h.classificationService.ClassifyContact(c.Request.Context(), req.SubjectID, req.Attributes)
	c.JSON(http.StatusOK, gin.H{
		"result":    result,
		"timestamp": time.Now(),
	})
}

// GetProfiles returns the configured ICP and persona profiles
func (h *ClassificationHandler) GetProfiles(c *gin.Context) {
	profiles := h.classificationService.Profiles()
	c.JSON(http.StatusOK, gin.H{
		"icp":       profiles.ICP,
		"personas":  profiles.Personas,
		"timestamp": time.Now(),
	})
}
