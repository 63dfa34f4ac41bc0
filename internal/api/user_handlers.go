package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/moodtracker/internal/service"
)

func RegisterUser(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.RegisterUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		if err := service.ValidateRegisterUserRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		user, err := service.RegisterUser(c.Request.Context(), app.Users(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, 409, "Failed to register user")
			return
		}

		HandleSuccess(c, app.Logger(), user, nil)
	}
}
