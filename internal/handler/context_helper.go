package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-planner-api/internal/middleware"
	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
	"github.com/noah-isme/classroom-planner-api/pkg/response"
)

func actorFromContext(c *gin.Context) string {
	if claims := middleware.ClaimsFromContext(c); claims != nil {
		return claims.Email
	}
	return ""
}

func requireParam(c *gin.Context, name string) string {
	value := strings.TrimSpace(c.Param(name))
	if value == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, name+" is required"))
		return ""
	}
	return value
}

func withCacheMeta(c *gin.Context, hit bool) map[string]interface{} {
	middleware.SetCacheHit(c, hit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{middleware.CacheHitMetaKey: hit}
	}
	return meta
}
