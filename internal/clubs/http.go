package clubs

import (
	"net/http"
	"strconv"
	"time"

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

func RegisterRoutes(r *gin.Engine, repo *Repository, protect gin.HandlerFunc) {
	api := r.Group("/api", protect)

	api.POST("/clubs", func(c *gin.Context) {
		u := auth.MustUser(c)
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		if len(req.Name) < 2 {
			apperr.Respond(c, apperr.E(apperr.Invalid, "club name must be at least 2 characters"))
			return
		}
		club, err := repo.CreateClub(c.Request.Context(), Club{Name: req.Name, Description: req.Description}, u.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, club)
	})

	api.GET("/clubs", func(c *gin.Context) {
		u := auth.MustUser(c)
		list, err := repo.ListUserClubs(c.Request.Context(), u.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	api.GET("/clubs/:clubID", func(c *gin.Context) {
		u := auth.MustUser(c)
		clubID, ok := parseID(c, "clubID")
		if !ok {
			return
		}
		club, err := repo.GetClub(c.Request.Context(), clubID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if _, err := repo.MembershipOf(c.Request.Context(), clubID, u.ID); err != nil {
			apperr.Respond(c, err)
			return
		}
		members, err := repo.ListMembers(c.Request.Context(), clubID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"club": club, "members": members})
	})

	api.PATCH("/clubs/:clubID", func(c *gin.Context) {
		u := auth.MustUser(c)
		clubID, ok := parseID(c, "clubID")
		if !ok {
			return
		}
		if err := repo.RequireAdmin(c.Request.Context(), clubID, u.ID); err != nil {
			apperr.Respond(c, err)
			return
		}
		var req ClubUpdate
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		club, err := repo.UpdateClub(c.Request.Context(), clubID, req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, club)
	})

	api.DELETE("/clubs/:clubID", func(c *gin.Context) {
		u := auth.MustUser(c)
		clubID, ok := parseID(c, "clubID")
		if !ok {
			return
		}
		m, err := repo.MembershipOf(c.Request.Context(), clubID, u.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if m.Privilege != PrivilegeOwner {
			apperr.Respond(c, apperr.E(apperr.Forbidden, "only the owner can delete a club"))
			return
		}
		if err := repo.DeleteClub(c.Request.Context(), clubID); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/clubs/:clubID/members", func(c *gin.Context) {
		u := auth.MustUser(c)
		clubID, ok := parseID(c, "clubID")
		if !ok {
			return
		}
		if _, err := repo.MembershipOf(c.Request.Context(), clubID, u.ID); err != nil {
			apperr.Respond(c, err)
			return
		}
		members, err := repo.ListMembers(c.Request.Context(), clubID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, members)
	})

	api.PATCH("/clubs/:clubID/members/:memberID", func(c *gin.Context) {
		u := auth.MustUser(c)
		clubID, ok := parseID(c, "clubID")
		if !ok {
			return
		}
		memberID, ok := parseID(c, "memberID")
		if !ok {
			return
		}
		if err := repo.RequireAdmin(c.Request.Context(), clubID, u.ID); err != nil {
			apperr.Respond(c, err)
			return
		}
		var req MemberUpdate
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		m, err := repo.UpdateMember(c.Request.Context(), clubID, memberID, req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	})

	api.PATCH("/clubs/:clubID/members/:memberID/privilege", func(c *gin.Context) {
		u := auth.MustUser(c)
		clubID, ok := parseID(c, "clubID")
		if !ok {
			return
		}
		memberID, ok := parseID(c, "memberID")
		if !ok {
			return
		}
		caller, err := repo.MembershipOf(c.Request.Context(), clubID, u.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if caller.Privilege != PrivilegeOwner {
			apperr.Respond(c, apperr.E(apperr.Forbidden, "only the owner can change privileges"))
			return
		}
		var req struct {
			Privilege Privilege `json:"privilege"`
		}
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		m, err := repo.UpdatePrivilege(c.Request.Context(), clubID, memberID, req.Privilege)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	})

	api.DELETE("/clubs/:clubID/members/:memberID", func(c *gin.Context) {
		u := auth.MustUser(c)
		clubID, ok := parseID(c, "clubID")
		if !ok {
			return
		}
		memberID, ok := parseID(c, "memberID")
		if !ok {
			return
		}
		if err := repo.RequireAdmin(c.Request.Context(), clubID, u.ID); err != nil {
			apperr.Respond(c, err)
			return
		}
		if err := repo.RemoveMember(c.Request.Context(), clubID, memberID); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.POST("/clubs/:clubID/invites", func(c *gin.Context) {
		u := auth.MustUser(c)
		clubID, ok := parseID(c, "clubID")
		if !ok {
			return
		}
		if err := repo.RequireAdmin(c.Request.Context(), clubID, u.ID); err != nil {
			apperr.Respond(c, err)
			return
		}
		var req struct {
			TTLHours int `json:"ttl_hours"`
		}
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		inv, err := repo.CreateInvite(c.Request.Context(), clubID, u.ID, time.Duration(req.TTLHours)*time.Hour)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, inv)
	})

	api.GET("/invites/:token", func(c *gin.Context) {
		inv, err := repo.GetInviteByToken(c.Request.Context(), c.Param("token"))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		club, err := repo.GetClub(c.Request.Context(), inv.ClubID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"club": club, "expires_at": inv.ExpiresAt})
	})

	api.POST("/invites/:token/redeem", func(c *gin.Context) {
		u := auth.MustUser(c)
		m, err := repo.RedeemInvite(c.Request.Context(), c.Param("token"), u.ID)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, m)
	})
}
