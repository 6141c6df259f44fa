package handler

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"decom/internal/config"
	"decom/internal/logger"
	"decom/internal/metrics"
	"decom/internal/middleware"
	"decom/internal/permission"
	"decom/internal/schedule"
	"decom/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs. Static may be nil.
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Clock      *schedule.Clock
	Tokens     *middleware.Tokens
	Auth       *service.AuthService
	Users      *service.UserService
	Committees *service.CommitteeService
	Requests   *service.RequestService
	Stats      *service.StatsService
	Static     fs.FS
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	authH := NewAuthHandler(d.Auth, d.Tokens, CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure})
	requestH := NewRequestHandler(d.Requests)
	calendarH := NewCalendarHandler(d.Requests, d.Clock)
	committeeH := NewCommitteeHandler(d.Committees)
	userH := NewUserHandler(d.Users)
	statsH := NewStatsHandler(d.Stats)

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Warn("router.trusted_proxies_invalid", "proxies", cfg.Server.TrustedProxies, "err", err)
		r.SetTrustedProxies(nil)
	}
	r.Use(middleware.RequestID(), middleware.AccessLog(), gin.Recovery(), metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"X-New-Token", middleware.HeaderRequestID},
		AllowCredentials: !allowsAny(cfg.Server.AllowOrigins),
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", Health(d.DB))
	r.GET("/metrics", metrics.Handler())

	submitLimit := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	loginLimit := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	pub := r.Group("/api")
	pub.POST("/requests", submitLimit.Middleware(), requestH.Create)
	pub.GET("/committees", committeeH.List)
	pub.GET("/stats", statsH.Public)
	pub.GET("/calendar", calendarH.Public)
	pub.GET("/schemas", ListSchemas)
	pub.GET("/schemas/:name", GetSchema)
	pub.POST("/login", loginLimit.Middleware(), authH.Login)
	pub.POST("/logout", authH.Logout)

	auth := middleware.JWTAuth(d.Tokens, d.Auth, cfg.Auth.CookieName)
	r.GET("/api/me", auth, authH.Me)

	admin := r.Group("/api/admin", auth)
	can := middleware.RequirePermission

	admin.GET("/requests", can(permission.RequestsRead), requestH.List)
	admin.GET("/requests/:id", can(permission.RequestsRead), requestH.Get)
	admin.GET("/requests/:id/history", can(permission.RequestsRead), requestH.History)
	admin.PATCH("/requests/:id", can(permission.RequestsUpdate), requestH.Update)
	admin.POST("/requests/:id/archive", can(permission.RequestsArchive), requestH.Archive)
	admin.GET("/calendar", can(permission.CalendarAll), calendarH.Admin)
	admin.GET("/stats", can(permission.RequestsRead), statsH.Admin)

	admin.POST("/committees", can(permission.CommitteesWrite), committeeH.Create)
	admin.PUT("/committees/:id", can(permission.CommitteesWrite), committeeH.Update)
	admin.DELETE("/committees/:id", can(permission.CommitteesWrite), committeeH.Delete)

	admin.GET("/users", can(permission.UsersManage), userH.List)
	admin.POST("/users", can(permission.UsersManage), userH.Create)
	admin.PATCH("/users/:id", can(permission.UsersManage), userH.Update)
	admin.DELETE("/users/:id", can(permission.UsersManage), userH.Deactivate)

	if d.Static != nil {
		files := http.FileServer(http.FS(d.Static))
		r.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.JSON(http.StatusNotFound, gin.H{"error": "no encontrado"})
				return
			}
			files.ServeHTTP(c.Writer, c.Request)
		})
	}
	return r
}

// Browsers refuse credentialed CORS with a wildcard origin.
func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
