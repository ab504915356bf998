package auth

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/lorenzoromandini/CalcettoApp-sub001/internal/apperr"
)

const CookieName = "session_token"

// userKey is the gin context key holding the resolved caller.
const userKey = "auth.user"

func ttlFromEnv() time.Duration {
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return 30 * 24 * time.Hour
}

// cookieSecure determines the Secure flag for cookies. Defaults true in non-local.
func cookieSecure() bool {
	if v := strings.ToLower(os.Getenv("COOKIE_SECURE")); v != "" {
		return v == "1" || v == "true" || v == "yes"
	}
	return true
}

func RegisterRoutes(r *gin.Engine, repo *Repository) {
	api := r.Group("/api/auth")

	api.POST("/register", func(c *gin.Context) {
		var req struct {
			Email     string `json:"email"`
			Password  string `json:"password"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Nickname  string `json:"nickname"`
		}
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || !strings.Contains(req.Email, "@") {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid email"))
			return
		}
		if len(req.Password) < 12 {
			apperr.Respond(c, apperr.E(apperr.Invalid, "password too short (min 12)"))
			return
		}
		if req.FirstName == "" || req.LastName == "" {
			apperr.Respond(c, apperr.E(apperr.Invalid, "missing first or last name"))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			apperr.Respond(c, apperr.Wrap(apperr.Internal, "hash failed", err))
			return
		}

		u, err := repo.CreateUser(c.Request.Context(), User{
			Email:        req.Email,
			PasswordHash: string(hash),
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Nickname:     req.Nickname,
		})
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	})

	api.POST("/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" {
			apperr.Respond(c, apperr.E(apperr.Invalid, "missing email or password"))
			return
		}

		u, err := repo.GetUserByEmail(c.Request.Context(), req.Email)
		if err != nil {
			apperr.Respond(c, apperr.E(apperr.Unauthorized, "invalid credentials"))
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
			apperr.Respond(c, apperr.E(apperr.Unauthorized, "invalid credentials"))
			return
		}

		s, err := repo.CreateSession(c.Request.Context(), u.ID, ttlFromEnv())
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		maxAge := int(time.Until(s.ExpiresAt).Seconds())
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, s.Token, maxAge, "/", "", cookieSecure(), true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api.POST("/logout", func(c *gin.Context) {
		tok, err := c.Cookie(CookieName)
		if err == nil && tok != "" {
			_ = repo.DeleteSession(c.Request.Context(), tok)
		}
		c.SetSameSite(http.SameSiteLaxMode)
		// overwrite with expired cookie
		c.SetCookie(CookieName, "", -1, "/", "", cookieSecure(), true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api.GET("/me", func(c *gin.Context) {
		u, ok := CurrentUser(c, repo)
		if !ok {
			apperr.Respond(c, apperr.E(apperr.Unauthorized, "unauthorized"))
			return
		}
		c.JSON(http.StatusOK, u)
	})

	api.PATCH("/me", RequireUser(repo), func(c *gin.Context) {
		u := MustUser(c)
		var req ProfileUpdate
		if err := c.BindJSON(&req); err != nil {
			apperr.Respond(c, apperr.E(apperr.Invalid, "invalid json"))
			return
		}
		updated, err := repo.UpdateProfile(c.Request.Context(), u.ID, req)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	})
}

// CurrentUser resolves user from the session cookie for convenience.
func CurrentUser(c *gin.Context, repo *Repository) (User, bool) {
	tok, err := c.Cookie(CookieName)
	if err != nil || tok == "" {
		return User{}, false
	}
	u, err := repo.GetUserBySession(c.Request.Context(), tok)
	if err != nil {
		return User{}, false
	}
	return u, true
}

// RequireUser resolves the caller from the session cookie and stores it on
// the context; requests without a valid session are rejected with 401.
func RequireUser(repo *Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := c.Cookie(CookieName)
		if err != nil || tok == "" {
			apperr.Abort(c, apperr.E(apperr.Unauthorized, "unauthorized"))
			return
		}
		u, err := repo.GetUserBySession(c.Request.Context(), tok)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// MustUser returns the caller stored by RequireUser. Only valid on routes
// behind that middleware.
func MustUser(c *gin.Context) User {
	return c.MustGet(userKey).(User)
}
