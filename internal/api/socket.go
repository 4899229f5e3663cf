package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/quizroom/quizroom/internal/errors"
	"github.com/quizroom/quizroom/internal/session"
	"github.com/quizroom/quizroom/internal/ws"
)

// Inbound client request names. Responses arrive as broadcast events,
// never as direct replies, except the targeted error event.
const (
	requestCreateSession = "create-session"
	requestJoinSession   = "join-session"
	requestStartGame     = "start-game"
	requestSubmitAnswer  = "submit-answer"
	requestNextQuestion  = "next-question"
)

type createSessionRequest struct {
	Nickname      string `json:"nickname"`
	QuestionCount int    `json:"question_count"`
}

type joinSessionRequest struct {
	Code     string `json:"code"`
	Nickname string `json:"nickname"`
}

type startGameRequest struct {
	Code string `json:"code"`
}

type submitAnswerRequest struct {
	Code string `json:"code"`
	// Option is nil for a forced null answer on round timeout.
	Option        *int  `json:"option"`
	ElapsedMillis int64 `json:"elapsed_millis"`
}

type nextQuestionRequest struct {
	Code string `json:"code"`
}

// buildUpgrader creates a websocket upgrader with origin validation.
// An empty origin list permits all origins.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// Socket returns the websocket endpoint handler: upgrade, register
// with the hub, then dispatch inbound requests to the coordinator
// until the connection closes.
func (a *API) Socket(allowedOrigins []string) gin.HandlerFunc {
	upgrader := buildUpgrader(allowedOrigins)

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "ws: upgrade failed", "error", err)
			return
		}

		client := a.hub.Add(conn)
		ctx := context.WithoutCancel(c.Request.Context())
		defer a.hub.Remove(ctx, client.ID)

		slog.InfoContext(ctx, "ws: client connected", "connection", client.ID)

		for {
			var env ws.Envelope
			if err := client.ReadEnvelope(&env); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.WarnContext(ctx, "ws: unexpected close", "connection", client.ID, "error", err)
				} else {
					slog.InfoContext(ctx, "ws: client disconnected", "connection", client.ID)
				}
				return
			}

			a.dispatch(ctx, client, env)
		}
	}
}

func (a *API) dispatch(ctx context.Context, client *ws.Client, env ws.Envelope) {
	var err error

	switch env.Event {
	case requestCreateSession:
		var req createSessionRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			_, err = a.quiz.CreateSession(ctx, session.CreateSessionRequest{
				ConnectionID:  client.ID,
				Nickname:      req.Nickname,
				QuestionCount: req.QuestionCount,
			})
		}

	case requestJoinSession:
		var req joinSessionRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			_, err = a.quiz.JoinSession(ctx, session.JoinSessionRequest{
				Code:         req.Code,
				ConnectionID: client.ID,
				Nickname:     req.Nickname,
			})
		}

	case requestStartGame:
		var req startGameRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			err = a.quiz.StartGame(ctx, req.Code, client.ID)
		}

	case requestSubmitAnswer:
		var req submitAnswerRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			var option int
			if req.Option != nil {
				option = *req.Option
			}
			a.quiz.SubmitAnswer(ctx, session.SubmitAnswerRequest{
				Code:          req.Code,
				ConnectionID:  client.ID,
				Option:        option,
				ElapsedMillis: req.ElapsedMillis,
			})
		}

	case requestNextQuestion:
		var req nextQuestionRequest
		if err = json.Unmarshal(env.Data, &req); err == nil {
			a.quiz.NextQuestion(ctx, req.Code, client.ID)
		}

	default:
		slog.WarnContext(ctx, "ws: unknown request", "connection", client.ID, "event", env.Event)
		err = errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown request: %s", env.Event))
	}

	if err != nil {
		a.hub.SendTo(client.ID, session.EventError, errors.Convert(err))
	}
}
