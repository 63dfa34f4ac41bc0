package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/moodtracker/internal"
	"github.com/yourname/moodtracker/internal/service"
)

func PostMood(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var req service.MoodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		if err := service.ValidateMoodRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		event, err := service.SubmitMood(c.Request.Context(), app.Events(), app.Personal(), user, &req)
		if err != nil {
			HandleError(c, app.Logger(), err, statusForError(err), "Failed to record mood")
			return
		}

		HandleSuccess(c, app.Logger(), event, nil)
	}
}

func GetMoodCatalog(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), service.ListMoodCatalog(), nil)
	}
}

func GetPersonalMoods(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		moods, err := app.Personal().GetPersonalMoods(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch personal moods")
			return
		}

		HandleSuccess(c, app.Logger(), moods, nil)
	}
}

func PutPersonalMood(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var req service.PersonalMoodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}

		if err := service.ValidatePersonalMoodRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		if err := service.SetPersonalMood(c.Request.Context(), app.Personal(), user, &req); err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to save personal mood")
			return
		}

		HandleSuccess(c, app.Logger(), req, nil)
	}
}
