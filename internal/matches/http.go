package matches

import (
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

	api.POST("/clubs/:clubID/matches", func(c *gin.Context) {
		u := auth.MustUser(c)
		clubID, ok := parseID(c, "clubID")
		if !ok {
			return
		}
		var req CreateInput
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		m, err := svc.CreateMatch(c.Request.Context(), clubID, u.ID, req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, m)
	})

	api.GET("/clubs/:clubID/matches", func(c *gin.Context) {
		u := auth.MustUser(c)
		clubID, ok := parseID(c, "clubID")
		if !ok {
			return
		}
		filter := ListFilter(c.Query("when"))
		list, err := svc.ListMatches(c.Request.Context(), clubID, u.ID, filter)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	api.GET("/matches/:matchID", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		m, err := svc.memberMatch(c.Request.Context(), matchID, u.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	})

	api.PATCH("/matches/:matchID", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		if _, err := svc.adminMatch(c.Request.Context(), matchID, u.ID); err != nil {
			apperr.Respond(c, err)
			return
		}
		var req MatchUpdate
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		m, err := svc.repo.Update(c.Request.Context(), matchID, req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	})

	// Lifecycle transitions. Each is a CAS on the current status; a stale
	// precondition returns 409 and leaves the match untouched.
	transition := func(fn func(c *gin.Context, matchID, userID uint) (Match, error)) gin.HandlerFunc {
		return func(c *gin.Context) {
			u := auth.MustUser(c)
			matchID, ok := parseID(c, "matchID")
			if !ok {
				return
			}
			m, err := fn(c, matchID, u.ID)
			if err != nil {
				apperr.Respond(c, err)
				return
			}
			c.JSON(http.StatusOK, m)
		}
	}

	api.POST("/matches/:matchID/start", transition(func(c *gin.Context, matchID, userID uint) (Match, error) {
		return svc.Start(c.Request.Context(), matchID, userID)
	}))
	api.POST("/matches/:matchID/end", transition(func(c *gin.Context, matchID, userID uint) (Match, error) {
		return svc.End(c.Request.Context(), matchID, userID)
	}))
	api.POST("/matches/:matchID/complete", transition(func(c *gin.Context, matchID, userID uint) (Match, error) {
		return svc.Complete(c.Request.Context(), matchID, userID)
	}))
	api.POST("/matches/:matchID/cancel", transition(func(c *gin.Context, matchID, userID uint) (Match, error) {
		return svc.Cancel(c.Request.Context(), matchID, userID)
	}))
	api.POST("/matches/:matchID/uncancel", transition(func(c *gin.Context, matchID, userID uint) (Match, error) {
		return svc.Uncancel(c.Request.Context(), matchID, userID)
	}))
	api.POST("/matches/:matchID/final-results", transition(func(c *gin.Context, matchID, userID uint) (Match, error) {
		var req struct {
			HomeScore int `json:"home_score"`
			AwayScore int `json:"away_score"`
		}
		if err := c.BindJSON(&req); err != nil {
			return Match{}, apperr.E(apperr.Invalid, "invalid json")
		}
		return svc.InputFinalResults(c.Request.Context(), matchID, userID, req.HomeScore, req.AwayScore)
	}))

	api.GET("/matches/:matchID/goals", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		goals, err := svc.Goals(c.Request.Context(), matchID, u.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, goals)
	})

	api.POST("/matches/:matchID/goals", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		var req AddGoalInput
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		g, err := svc.AddGoal(c.Request.Context(), matchID, u.ID, req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, g)
	})

	api.DELETE("/matches/:matchID/goals/:goalID", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		goalID, ok := parseID(c, "goalID")
		if !ok {
			return
		}
		if err := svc.RemoveGoal(c.Request.Context(), matchID, goalID, u.ID); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/matches/:matchID/rsvps", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		sheet, err := svc.RSVPs(c.Request.Context(), matchID, u.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, sheet)
	})

	api.PUT("/matches/:matchID/rsvp", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		var req struct {
			Status RSVPStatus `json:"status"`
		}
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		r, err := svc.SetRSVP(c.Request.Context(), matchID, u.ID, req.Status)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	})

	api.GET("/matches/:matchID/rsvp", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		r, found, err := svc.MyRSVP(c.Request.Context(), matchID, u.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusOK, gin.H{"status": nil})
			return
		}
		c.JSON(http.StatusOK, r)
	})

	api.GET("/matches/:matchID/participation", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		list, err := svc.Participations(c.Request.Context(), matchID, u.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	api.PATCH("/matches/:matchID/participation/:memberID", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		memberID, ok := parseID(c, "memberID")
		if !ok {
			return
		}
		var req struct {
			Played bool `json:"played"`
		}
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		p, err := svc.SetPlayed(c.Request.Context(), matchID, memberID, u.ID, req.Played)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	api.PUT("/matches/:matchID/participation", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		var req map[uint]bool
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		if err := svc.BulkSetPlayed(c.Request.Context(), matchID, u.ID, req); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
}
