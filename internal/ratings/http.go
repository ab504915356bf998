package ratings

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

	// The rating scale is static; clients use it to build pickers.
	api.GET("/ratings/values", func(c *gin.Context) {
		c.JSON(http.StatusOK, Values())
	})

	api.GET("/matches/:matchID/ratings", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		sheet, err := svc.ForMatch(c.Request.Context(), matchID, u.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, sheet)
	})

	api.PUT("/matches/:matchID/ratings", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		var req UpsertInput
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		rated, err := svc.Upsert(c.Request.Context(), matchID, u.ID, req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, rated)
	})

	api.DELETE("/matches/:matchID/ratings/:memberID", func(c *gin.Context) {
		u := auth.MustUser(c)
		matchID, ok := parseID(c, "matchID")
		if !ok {
			return
		}
		memberID, ok := parseID(c, "memberID")
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), matchID, memberID, u.ID); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/clubs/:clubID/members/:memberID/ratings", func(c *gin.Context) {
		u := auth.MustUser(c)
		clubID, ok := parseID(c, "clubID")
		if !ok {
			return
		}
		memberID, ok := parseID(c, "memberID")
		if !ok {
			return
		}
		history, err := svc.MemberHistory(c.Request.Context(), clubID, memberID, u.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
	})
}
