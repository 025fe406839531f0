package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves a Swagger UI page and the OpenAPI document it loads.
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>paperfix API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "paperfix", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } }
  },
  "paths": {
    "/api/templates": { "get": { "summary": "List templates", "parameters": [{"name":"category","in":"query","schema":{"type":"string"}}], "responses": { "200": { "description": "template summaries" } } } },
    "/api/templates/categories": { "get": { "summary": "List template categories", "responses": { "200": { "description": "categories" } } } },
    "/api/templates/{id}": { "get": { "summary": "Get a template with its questions", "responses": { "200": { "description": "template" }, "404": { "description": "unknown template" } } } },
    "/api/generate": {
      "post": {
        "summary": "Generate a document; streams SSE deltas when Accept is text/event-stream",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["templateId"],"properties":{"templateId":{"type":"string"},"answers":{"type":"object","additionalProperties":{"type":"string"}}}}}}},
        "responses": { "200": { "description": "document text or event stream" }, "400": { "description": "invalid input" }, "404": { "description": "unknown template" }, "502": { "description": "generation failed" } }
      }
    },
    "/api/edit": {
      "post": {
        "summary": "Apply an edit instruction to a document",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["content","instruction"],"properties":{"content":{"type":"string"},"instruction":{"type":"string"}}}}}},
        "responses": { "200": { "description": "edited document or event stream" }, "400": { "description": "invalid input" }, "502": { "description": "edit failed" } }
      }
    },
    "/api/generate-document": { "post": { "summary": "Generate a document (JSON)", "responses": { "200": { "description": "{document}" }, "400": { "description": "Missing required fields" } } } },
    "/api/update-document": { "post": { "summary": "Edit a document (JSON)", "responses": { "200": { "description": "{updatedDocument}" }, "400": { "description": "Missing required fields" } } } },
    "/api/download": { "post": { "summary": "Render a PDF", "responses": { "200": { "description": "application/pdf" }, "400": { "description": "missing content" } } } },
    "/api/email": { "post": { "summary": "Email a document as PDF", "responses": { "200": { "description": "sent" }, "400": { "description": "missing fields" }, "502": { "description": "provider failure" }, "503": { "description": "email not configured" } } } },
    "/api/documents": {
      "get": { "summary": "List own documents", "security": [{"bearer": []}], "parameters": [{"name":"includeDrafts","in":"query","schema":{"type":"boolean"}}], "responses": { "200": { "description": "documents" } } },
      "post": { "summary": "Create a finalized document", "security": [{"bearer": []}], "responses": { "201": { "description": "created" }, "400": { "description": "invalid input" } } }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Get a document", "security": [{"bearer": []}], "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Update title or content", "security": [{"bearer": []}], "responses": { "200": { "description": "document" } } },
      "delete": { "summary": "Delete a document", "security": [{"bearer": []}], "responses": { "204": { "description": "deleted" } } }
    },
    "/api/documents/{id}/progress": { "put": { "summary": "Save draft progress", "security": [{"bearer": []}], "responses": { "200": { "description": "saved" } } } },
    "/api/documents/{id}/finalize": { "post": { "summary": "Finalize a draft", "security": [{"bearer": []}], "responses": { "200": { "description": "document" } } } },
    "/api/documents/{id}/archive": { "post": { "summary": "Archive a PDF copy and return a download URL", "security": [{"bearer": []}], "responses": { "200": { "description": "{url}" }, "503": { "description": "storage not configured" } } } },
    "/api/drafts": {
      "get": { "summary": "List drafts", "security": [{"bearer": []}], "parameters": [{"name":"templateId","in":"query","schema":{"type":"string"}}], "responses": { "200": { "description": "drafts" } } },
      "post": { "summary": "Create or refresh the draft for a template", "security": [{"bearer": []}], "responses": { "200": { "description": "draft" } } }
    },
    "/api/v1/me": { "get": { "summary": "Upsert and return the caller's profile", "security": [{"bearer": []}], "responses": { "200": { "description": "user" } } } },
    "/api/v1/users/{id}": { "get": { "summary": "Public profile of a user", "security": [{"bearer": []}], "responses": { "200": { "description": "profile" }, "404": { "description": "unknown user" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
