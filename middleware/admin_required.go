// Package middleware provides request filters and security checks for the application.
// File: middleware/admin_required.go
package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"prayreps/logger"
)

// -------------- admin middleware --------------

// AdminRequired ensures the session belongs to a logged-in admin before
// allowing destructive queue operations (purge and reload).
// How it works:
// - Retrieves the session from the request context.
// - Checks the "isAdmin" session flag set by the admin login.
// - If the flag is missing, redirects to /admin/login and aborts.
func AdminRequired(c *gin.Context) {
	session := sessions.Default(c)
	isAdmin, ok := session.Get("isAdmin").(bool)

	if !ok || !isAdmin {
		logger.Warn.Printf("AdminRequired: unauthenticated request to %s", c.Request.URL.Path)
		c.Redirect(http.StatusFound, "/admin/login")
		c.Abort()
		return
	}

	logger.Debug.Println("[AdminRequired] admin session verified - proceeding with request")
	c.Next()
}
