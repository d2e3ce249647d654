package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxBody = 1 << 20

// NewRouter registers every route on a fresh engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), cors(), compress(), limitBody())

	r.GET("/healthz", Health)
	r.HEAD("/healthz", Health)

	quotes := r.Group("/api")
	{
		quotes.GET("/quotes", h.GetQuotes)
		quotes.POST("/quotes", h.PostQuotes)
		quotes.GET("/quotes/:symbol", h.GetQuote)
		quotes.GET("/crypto", h.GetCrypto)
	}
	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// limitBody caps POST bodies.
func limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
		}
		c.Next()
	}
}
