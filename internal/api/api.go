package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/quizroom/quizroom/internal/domain"
	"github.com/quizroom/quizroom/internal/errors"
	"github.com/quizroom/quizroom/internal/event"
	"github.com/quizroom/quizroom/internal/leaderboard"
	"github.com/quizroom/quizroom/internal/session"
	"github.com/quizroom/quizroom/internal/ws"
)

type Config struct {
	Engine         *gin.Engine
	EventBus       *event.Bus
	Session        *session.Service
	Leaderboard    *leaderboard.Service
	Hub            *ws.Hub
	Redis          Redis
	PubsubPrefix   string
	AllowedOrigins []string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	quiz *session.Service
	ls   *leaderboard.Service
	hub  *ws.Hub

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		quiz:   c.Session,
		ls:     c.Leaderboard,
		hub:    c.Hub,
		redis:  c.Redis,
		prefix: c.PubsubPrefix,
	}

	// Transport surface
	c.Engine.GET("/healthz", a.Health)
	c.Engine.GET("/ws", a.Socket(c.AllowedOrigins))
	c.Engine.GET("/api/sessions/:code", a.GetSession)
	c.Engine.GET("/api/sessions/:code/leaderboard", a.GetLeaderboard)

	// Disconnect cleanup is immediate and unconditional.
	c.Hub.OnDisconnect(func(ctx context.Context, connectionID string) {
		a.quiz.RemoveConnection(ctx, connectionID)
	})

	// Register event handlers
	c.EventBus.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
		return a.PublishLeaderboardUpdated(ctx, e.(domain.EventLeaderboardUpdated))
	})

	return a
}

func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetSession is a read-only lobby preview; it never exposes correct
// answers because coordinator snapshots already strip them.
func (a *API) GetSession(c *gin.Context) {
	snap := a.quiz.GetSession(c.Param("code"))
	if snap == nil {
		e := errors.New(errors.CodeNotFound, errors.WithMessagef("session not found: code=%s", c.Param("code")))
		c.JSON(e.HTTPStatusCode(), e)
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (a *API) GetLeaderboard(c *gin.Context) {
	l, err := a.ls.GetLeaderboard(c.Request.Context(), leaderboard.GetLeaderboardRequest{
		SessionCode: c.Param("code"),
	})
	if err != nil {
		e := errors.Convert(err)
		c.JSON(e.HTTPStatusCode(), e)
		return
	}

	resp := Leaderboard{
		SessionCode: l.SessionCode,
		Entries:     make([]LeaderboardEntry, 0, len(l.Entries)),
	}
	for _, entry := range l.Entries {
		resp.Entries = append(resp.Entries, LeaderboardEntry{
			Nickname: entry.Nickname,
			Score:    entry.Score,
		})
	}

	c.JSON(http.StatusOK, resp)
}
