package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

// AggregateDaily triggers the incremental roll-up for yesterday. The
// run's failure policy is abort-on-error; a partial report still comes
// back with the error.
func AggregateDaily(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := app.Aggregator().RunDaily(c.Request.Context(), time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Daily aggregation failed")
			return
		}
		HandleSuccess(c, app.Logger(), report, nil)
	}
}

// AggregateBackfill recomputes every user's full daily-average history.
func AggregateBackfill(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := app.Aggregator().RunBackfill(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Backfill aggregation failed")
			return
		}
		HandleSuccess(c, app.Logger(), report, nil)
	}
}
