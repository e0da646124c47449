package middleware

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"
)

// CORSMiddleware allows every origin, method and header. A request Origin is
// echoed back so that credentialed requests are accepted too.
func CORSMiddleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		h := c.Writer.Header()
		if origin := c.Request.Header.Get("Origin"); origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		} else {
			h.Set("Access-Control-Allow-Origin", "*")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		if requested := c.Request.Header.Get("Access-Control-Request-Headers"); requested != "" {
			h.Set("Access-Control-Allow-Headers", requested)
		} else {
			h.Set("Access-Control-Allow-Headers", "*")
		}
		h.Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
