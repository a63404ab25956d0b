// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package types

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Principle identifies the authenticated caller. Authentication itself happens
// upstream at the gateway; by the time a request reaches this service the user
// id has been verified and injected as a header.
type Principle struct {
	UserId uint64
}

const userIdHeader = "X-User-Id"

// GetAuthPrinciple extracts the gateway-verified principal from the request.
// Returns false when the header is missing or unparsable.
func GetAuthPrinciple(c *gin.Context) (*Principle, bool) {
	raw := c.GetHeader(userIdHeader)
	if raw == "" {
		return nil, false
	}
	userId, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || userId == 0 {
		return nil, false
	}
	return &Principle{UserId: userId}, true
}
