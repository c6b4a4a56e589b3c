// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookie is the browser cookie that identifies an editing
// session.
const SessionCookie = "tabular_session"

// sessionKey is where the middleware stores the session ID in the gin
// context.
const sessionKey = "session_id"

const cookieMaxAge = 30 * 24 * time.Hour

// Session assigns every request a stable session ID: the existing
// cookie value, or a fresh UUID set on the response.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || id == "" {
			id = uuid.NewString()
			c.SetCookie(SessionCookie, id, int(cookieMaxAge.Seconds()), "/", "", false, true)
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}

// SessionID returns the session ID assigned by the Session middleware.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
