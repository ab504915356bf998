package stats

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/auth"
)

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperr.Respond(c, apperr.Ef(apperr.Invalid, "invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

func RegisterRoutes(r *gin.Engine, svc *Service, protect gin.HandlerFunc) {
	api := r.Group("/api", protect)

	leaderboard := func(fn func(ctx context.Context, clubID, userID uint, limit int) ([]LeaderboardEntry, error)) gin.HandlerFunc {
		return func(c *gin.Context) {
			u := auth.MustUser(c)
			clubID, ok := parseID(c, "clubID")
			if !ok {
				return
			}
			limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
			list, err := fn(c.Request.Context(), clubID, u.ID, limit)
			if err != nil {
				apperr.Respond(c, err)
				return
			}
			c.JSON(http.StatusOK, list)
		}
	}

	api.GET("/clubs/:clubID/stats/top-scorers", leaderboard(svc.TopScorers))
	api.GET("/clubs/:clubID/stats/top-assisters", leaderboard(svc.TopAssisters))
	api.GET("/clubs/:clubID/stats/top-appearances", leaderboard(svc.TopAppearances))
	api.GET("/clubs/:clubID/stats/top-rated", leaderboard(svc.TopRated))

	api.GET("/clubs/:clubID/members/:memberID/stats", func(c *gin.Context) {
		u := auth.MustUser(c)
		clubID, ok := parseID(c, "clubID")
		if !ok {
			return
		}
		memberID, ok := parseID(c, "memberID")
		if !ok {
			return
		}
		sum, err := svc.MemberSummary(c.Request.Context(), clubID, memberID, u.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	})
}
