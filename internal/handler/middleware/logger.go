package middleware

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
)

// LoggerMiddleware logs one line per request. Paths in quiet are logged at debug level.
func LoggerMiddleware(quiet ...string) ginext.HandlerFunc {
	skip := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		skip[p] = struct{}{}
	}

	return func(c *ginext.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = zlog.Logger.Error()
		case status >= 400:
			event = zlog.Logger.Warn()
		default:
			if _, ok := skip[path]; ok {
				event = zlog.Logger.Debug()
			} else {
				event = zlog.Logger.Info()
			}
		}

		event.
			Str("method", method).
			Str("path", path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}
