package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	honeybadger "github.com/honeybadger-io/honeybadger-go"
	"github.com/sirupsen/logrus"
)

// HoneybadgerConfig selects the Honeybadger project; an empty APIKey disables reporting.
type HoneybadgerConfig struct {
	APIKey string
	Env    string
}

// HoneybadgerMiddleware reports panics and error responses to Honeybadger.
// On panic it notifies and re-panics so gin.Recovery writes the response.
func HoneybadgerMiddleware(cfg HoneybadgerConfig, log *logrus.Entry) gin.HandlerFunc {
	if cfg.APIKey == "" {
		log.Info("Honeybadger is not active. To enable error reporting, set the HONEYBADGER_API_KEY environment variable.")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	honeybadger.Configure(honeybadger.Configuration{
		APIKey: cfg.APIKey,
		Env:    cfg.Env,
	})
	log.Info("Honeybadger error reporting is enabled.")

	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				honeybadger.Notify(fmt.Sprintf("Panic: %s %s", c.Request.Method, c.Request.URL.Path),
					c.Request, honeybadger.Context{"stack": string(debug.Stack())}, honeybadger.Tags{"panic", "http"})
				log.Error("Recovered from panic, notified Honeybadger: ", rec)
				panic(rec)
			}
		}()

		c.Next()

		// Only server errors are reported.
		status := c.Writer.Status()
		if status < 500 {
			return
		}
		honeybadger.Notify(fmt.Sprintf("Error: HTTP %d: %s %s", status, c.Request.Method, c.Request.URL.Path),
			c.Request, honeybadger.Tags{"5XX", "http"})
		log.Warnf("Honeybadger reported HTTP %d for %s %s", status, c.Request.Method, c.Request.URL.Path)
	}
}
