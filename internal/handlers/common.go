package handlers

import (
	"ourskilllab/internal/middleware"
	"ourskilllab/internal/models"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// bindJSON decodes the body into req and runs validate on it. It writes the
// error response itself and reports whether the handler should continue.
func bindJSON[T any](c *gin.Context, req *T, validate func(*T) error) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, utils.ErrInvalidRequest)
		return false
	}
	if validate != nil {
		if err := validate(req); err != nil {
			utils.HandleServiceError(c, err)
			return false
		}
	}
	return true
}

func principalOrAbort(c *gin.Context) (*models.Principal, bool) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		utils.UnauthorizedResponse(c)
		return nil, false
	}
	return principal, true
}

func pathObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := validators.ParseObjectID(c.Param(param), param)
	if err != nil {
		utils.HandleServiceError(c, err)
		return primitive.NilObjectID, false
	}
	return id, true
}
