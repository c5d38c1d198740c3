// Package apitest runs an in-process stand-in for the item API.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"qiita-editor/pkg/models"
)

const (
	Token    = "test-token"
	Username = "alice"
)

// Request is a call the server received.
type Request struct {
	Method      string
	Path        string
	Token       string
	Accept      string
	ContentType string
	Payload     *models.ItemPayload
}

// Server serves a user's items from memory. Set Fail to make every request
// answer with that status.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	items    []models.Article
	requests []Request
	next     int
	fail     int
}

func NewServer(t *testing.T, items ...models.Article) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{items: items}
	r := gin.New()
	r.Use(s.record)
	api := r.Group("/api/v1")
	{
		api.POST("/items", s.createItem)
		api.PUT("/items/:uuid", s.updateItem)
		api.GET("/items/:uuid", s.getItem)
		api.GET("/users/:user/items", s.listItems)
	}
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to configure clients with.
func (s *Server) BaseURL() string {
	return s.URL + "/api/v1"
}

func (s *Server) Fail(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = status
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) record(c *gin.Context) {
	req := Request{
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		Token:       c.Query("token"),
		Accept:      c.GetHeader("Accept"),
		ContentType: c.GetHeader("Content-type"),
	}
	if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
		var payload models.ItemPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.Payload = &payload
		c.Set("payload", &payload)
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	fail := s.fail
	s.mu.Unlock()

	if req.Token != Token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if fail != 0 {
		c.AbortWithStatusJSON(fail, gin.H{"error": http.StatusText(fail)})
		return
	}
	c.Next()
}

func (s *Server) createItem(c *gin.Context) {
	payload := c.MustGet("payload").(*models.ItemPayload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	uuid := fmt.Sprintf("new%04d", s.next)
	article := models.Article{
		UUID:             uuid,
		Title:            payload.Title,
		Tags:             payload.Tags,
		RawBody:          payload.Body,
		Private:          payload.Private != nil && *payload.Private,
		URL:              "https://qiita.com/" + Username + "/items/" + uuid,
		UpdatedAtInWords: "1分以内",
	}
	s.items = append([]models.Article{article}, s.items...)
	c.JSON(http.StatusCreated, article)
}

func (s *Server) updateItem(c *gin.Context) {
	payload := c.MustGet("payload").(*models.ItemPayload)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].UUID == c.Param("uuid") {
			s.items[i].Title = payload.Title
			s.items[i].Tags = payload.Tags
			s.items[i].RawBody = payload.Body
			c.JSON(http.StatusOK, s.items[i])
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

func (s *Server) getItem(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.UUID == c.Param("uuid") {
			c.JSON(http.StatusOK, item)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

func (s *Server) listItems(c *gin.Context) {
	if c.Param("user") != Username {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	summaries := make([]models.Article, len(s.items))
	for i, item := range s.items {
		item.RawBody = ""
		summaries[i] = item
	}
	c.JSON(http.StatusOK, summaries)
}
