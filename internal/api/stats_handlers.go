package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourname/moodtracker/internal"
	"github.com/yourname/moodtracker/internal/service"
)

// periodParams are the six integer query parameters of the statistics
// endpoint. Non-integer values fail before period resolution.
var periodParams = []string{
	"start_year", "start_month", "start_day",
	"end_year", "end_month", "end_day",
}

func parsePeriodQuery(c *gin.Context) (internal.Period, error) {
	values := make([]int, len(periodParams))
	for i, name := range periodParams {
		raw := c.Query(name)
		v, err := strconv.Atoi(raw)
		if err != nil {
			return internal.Period{}, internal.NewValidationError("%s must be an integer, got %q", name, raw)
		}
		values[i] = v
	}
	return service.ResolvePeriod(values[0], values[1], values[2], values[3], values[4], values[5])
}

func GetStatistics(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		period, err := parsePeriodQuery(c)
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid period")
			return
		}

		stats, err := app.Stats().GetStatistics(c.Request.Context(), user.ID, period)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to compute statistics")
			return
		}
		if stats == nil {
			HandleError(c, app.Logger(), errors.New("no mood data in period"), 404, "Not found")
			return
		}

		HandleSuccess(c, app.Logger(), stats, nil)
	}
}

func GetDayDetail(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var target *time.Time
		if raw := c.Query("date"); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				HandleError(c, app.Logger(), err, 400, "Invalid date, want YYYY-MM-DD")
				return
			}
			target = &t
		}

		detail, err := app.Stats().GetDayDetail(c.Request.Context(), user.ID, target)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch day detail")
			return
		}
		if detail == nil {
			HandleError(c, app.Logger(), errors.New("no mood records for that day"), 404, "Not found")
			return
		}

		HandleSuccess(c, app.Logger(), detail, nil)
	}
}
