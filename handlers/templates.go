package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paperfix/paperfix/backend/go-services/internal/errs"
	"github.com/paperfix/paperfix/backend/go-services/internal/templates"
)

// RegisterTemplates serves the read-only template catalog.
func RegisterTemplates(r gin.IRouter) {
	g := r.Group("/api/templates")
	g.GET("", listTemplates)
	g.GET("/categories", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"categories": templates.Categories()})
	})
	g.GET("/:id", getTemplate)
}

func listTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": templates.List(c.Query("category"))})
}

func getTemplate(c *gin.Context) {
	t, ok := templates.Get(c.Param("id"))
	if !ok {
		_ = c.Error(errs.NotFound("template not found"))
		return
	}
	c.JSON(http.StatusOK, t)
}
