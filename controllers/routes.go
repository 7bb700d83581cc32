package controllers

import (
	"Agora/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initializeRoutes() {
	auth := middlewares.TokenAuthMiddleware(s.DB)
	optionalAuth := middlewares.OptionalAuthMiddleware(s.DB)
	adminOnly := middlewares.AdminOnlyMiddleware()

	s.Router.GET("/health", s.Health)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.Router.GET("/share/articles/:slug", s.ShareArticle)
	s.Router.GET("/sitemap.xml", s.Sitemap)
	s.Router.GET("/news-sitemap.xml", s.NewsSitemap)

	v1 := s.Router.Group("/api/v1")
	{
		// Discussion rounds
		v1.GET("/discussions", s.GetDiscussions)
		v1.GET("/discussions/:id", s.GetDiscussion)
		v1.GET("/discussions/by-slug/:slug", s.GetDiscussionBySlug)
		v1.POST("/discussions/:id/posts", auth, s.CreatePost)
		v1.POST("/posts/:id/like", auth, s.LikePost)

		// Content votes
		v1.GET("/votes", s.GetVotes)
		v1.GET("/votes/:id", optionalAuth, s.GetVote)
		v1.POST("/votes/:id/ballots", middlewares.BallotRateLimitMiddleware(), auth, s.CastBallot)
		v1.POST("/votes/:id/check", s.CheckVote)

		// Gamification
		v1.GET("/users/:id/stats", s.GetUserStats)
		v1.GET("/me/notifications", auth, s.GetNotifications)
		v1.GET("/hall-of-fame", s.GetHallOfFame)
		v1.GET("/hall-of-fame/argument-of-the-week", s.GetArgumentOfTheWeek)

		// Presence
		v1.GET("/presence/:channel", s.GetPresence)
		v1.GET("/presence/:channel/ws", s.PresenceSocket)

		v1.POST("/webhooks/payments", s.PaymentWebhook)

		admin := v1.Group("/admin", auth, adminOnly)
		{
			admin.POST("/discussions", s.CreateDiscussion)
			admin.POST("/discussions/:id/archive", s.ArchiveDiscussion)
			admin.POST("/votes", s.CreateVote)
		}
	}
}
