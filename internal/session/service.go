package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quizroom/quizroom/internal/domain"
	"github.com/quizroom/quizroom/internal/errors"
	"github.com/quizroom/quizroom/internal/event"
)

// Outbound event names on the client-facing surface.
const (
	EventSessionCreated = "session-created"
	EventSessionUpdated = "session-updated"
	EventGameStarted    = "game-started"
	EventRevealAnswer   = "reveal-answer"
	EventGameOver       = "game-over"
	EventError          = "error"
)

// How many times Create retries a colliding code before giving up.
const maxCodeAttempts = 10

// Source fetches random questions for a new session.
type Source interface {
	Random(ctx context.Context, count int) ([]domain.Question, error)
}

// Broadcaster delivers coordinator events to connected clients. Calls
// made for the same room must be delivered in call order.
type Broadcaster interface {
	JoinRoom(connectionID, room string)
	Broadcast(room, event string, payload any)
	SendTo(connectionID, event string, payload any)
}

type Config struct {
	EventBus    *event.Bus
	Questions   Source
	Broadcaster Broadcaster
	// Metrics is optional; when nil the service's collectors stay
	// unregistered.
	Metrics prometheus.Registerer
}

// Service is the session coordinator: the process-wide registry of
// active games plus the round lifecycle and scoring logic.
//
// Every mutating operation runs under one registry mutex, so no caller
// ever observes a partially updated session and broadcasts for a
// session are issued in mutation order.
type Service struct {
	eb *event.Bus
	qs Source
	bc Broadcaster

	mu       sync.Mutex
	sessions map[string]*liveSession

	metrics struct {
		sessionsCreated prometheus.Counter
		answersReceived prometheus.Counter
		gamesCompleted  prometheus.Counter
		activeSessions  prometheus.Gauge
	}
}

type liveSession struct {
	code      string
	host      string
	state     domain.SessionState
	players   []*livePlayer // join order
	questions []domain.Question
	current   int // 0-based index into questions
	answers   int // received this round, correct or not
}

type livePlayer struct {
	connectionID string
	nickname     string
	score        int
	answered     bool
}

func NewService(c Config) *Service {
	s := &Service{
		eb:       c.EventBus,
		qs:       c.Questions,
		bc:       c.Broadcaster,
		sessions: make(map[string]*liveSession),
	}

	s.metrics.sessionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quizroom_sessions_created_total",
		Help: "Number of sessions created.",
	})
	s.metrics.answersReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quizroom_answers_received_total",
		Help: "Number of answer submissions accepted.",
	})
	s.metrics.gamesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quizroom_games_completed_total",
		Help: "Number of games that reached game over.",
	})
	s.metrics.activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quizroom_active_sessions",
		Help: "Number of sessions currently in the registry.",
	})

	if c.Metrics != nil {
		c.Metrics.MustRegister(
			s.metrics.sessionsCreated,
			s.metrics.answersReceived,
			s.metrics.gamesCompleted,
			s.metrics.activeSessions,
		)
	}

	return s
}

// CreateSessionRequest represents a request to open a new game.
type CreateSessionRequest struct {
	// ConnectionID identifies the creating connection, which becomes
	// the session host and its first player.
	ConnectionID string
	Nickname     string
	// QuestionCount is how many questions to draw for the whole game.
	QuestionCount int
}

// CreateSession draws questions, registers a new session with the
// requester as host and sole player, and emits session-created to the
// creator. The session is never registered if the question draw fails.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*domain.Session, error) {
	if req.Nickname == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("nickname is required"))
	}
	if req.QuestionCount <= 0 {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("question count must be positive"))
	}

	questions, err := s.qs.Random(ctx, req.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("draw questions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.unusedCode()
	if err != nil {
		return nil, errors.Internal(err)
	}

	sess := &liveSession{
		code:  code,
		host:  req.ConnectionID,
		state: domain.StateLobby,
		players: []*livePlayer{
			{connectionID: req.ConnectionID, nickname: req.Nickname},
		},
		questions: questions,
	}
	s.sessions[code] = sess

	s.metrics.sessionsCreated.Inc()
	s.metrics.activeSessions.Set(float64(len(s.sessions)))

	snap := snapshot(sess)
	s.bc.JoinRoom(req.ConnectionID, code)
	s.bc.SendTo(req.ConnectionID, EventSessionCreated, snap)

	slog.InfoContext(ctx, "session: created",
		"code", code,
		"host", req.Nickname,
		"questions", len(questions),
	)

	return snap, nil
}

func (s *Service) unusedCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := newCode()
		if err != nil {
			return "", err
		}
		if _, taken := s.sessions[code]; !taken {
			return code, nil
		}
	}

	return "", fmt.Errorf("no unused session code after %d attempts", maxCodeAttempts)
}

type JoinSessionRequest struct {
	Code         string
	ConnectionID string
	Nickname     string
}

// JoinSession appends a new player to a not-yet-started session and
// broadcasts session-updated to all members.
func (s *Service) JoinSession(ctx context.Context, req JoinSessionRequest) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[req.Code]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("session not found: code=%s", req.Code))
	}

	if sess.state != domain.StateLobby {
		return nil, errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("game already started: code=%s", req.Code))
	}

	for _, p := range sess.players {
		if p.nickname == req.Nickname {
			return nil, errors.New(errors.CodeAlreadyExists, errors.WithMessagef("nickname already taken: %s", req.Nickname))
		}
	}

	sess.players = append(sess.players, &livePlayer{
		connectionID: req.ConnectionID,
		nickname:     req.Nickname,
	})

	snap := snapshot(sess)
	s.bc.JoinRoom(req.ConnectionID, sess.code)
	s.bc.Broadcast(sess.code, EventSessionUpdated, snap)

	slog.InfoContext(ctx, "session: player joined",
		"code", sess.code,
		"nickname", req.Nickname,
	)

	return snap, nil
}

// GetSession returns a read-only snapshot, or nil when the code is
// unknown.
func (s *Service) GetSession(code string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[code]
	if !ok {
		return nil
	}

	return snapshot(sess)
}

// StartGame moves a session from lobby into its first round. Only the
// host connection may start; starting twice is an error since started
// is irreversible.
func (s *Service) StartGame(ctx context.Context, code, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[code]
	if !ok {
		return errors.New(errors.CodeNotFound, errors.WithMessagef("session not found: code=%s", code))
	}

	if sess.host != connectionID {
		return errors.New(errors.CodePermissionDenied, errors.WithMessagef("only the host can start the game"))
	}

	if sess.state != domain.StateLobby {
		return errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("game already started: code=%s", code))
	}

	sess.state = domain.StateInRound
	sess.current = 0
	sess.resetRound()

	s.bc.Broadcast(sess.code, EventGameStarted, snapshot(sess))

	slog.InfoContext(ctx, "session: game started", "code", sess.code)

	return nil
}

type SubmitAnswerRequest struct {
	Code         string
	ConnectionID string
	// Option is the chosen option in [1,4]. Zero means a forced null
	// answer (round timeout): it counts toward the received total but
	// never scores.
	Option        int
	ElapsedMillis int64
}

// SubmitAnswer records one player's answer for the current round.
// Unknown sessions or players, wrong state, and duplicate submissions
// all degrade to silent no-ops: the submitter may simply be racing a
// disconnect, and duplicates must not double-count toward the reveal
// condition.
//
// The instant the received count reaches the player count the round is
// revealed synchronously as part of this call.
func (s *Service) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[req.Code]
	if !ok || sess.state != domain.StateInRound {
		return
	}

	var p *livePlayer
	for _, cand := range sess.players {
		if cand.connectionID == req.ConnectionID {
			p = cand
			break
		}
	}
	if p == nil || p.answered {
		return
	}

	p.answered = true
	sess.answers++
	s.metrics.answersReceived.Inc()

	question := sess.questions[sess.current]
	if req.Option == question.CorrectOption {
		p.score += calculatePoints(req.ElapsedMillis)

		s.eb.Publish(ctx, domain.EventScoreUpdated{
			Score: domain.Score{
				SessionCode: sess.code,
				Nickname:    p.nickname,
				TotalScore:  p.score,
				UpdateTime:  time.Now(),
			},
		})
	}

	if sess.answers >= len(sess.players) {
		s.reveal(ctx, sess)
	}
}

// RevealPayload is broadcast when a round's answer is exposed.
type RevealPayload struct {
	Session *domain.Session `json:"session"`
	// CorrectOption is the 1-based index of the right answer for the
	// round being revealed.
	CorrectOption int `json:"correct_option"`
}

func (s *Service) reveal(ctx context.Context, sess *liveSession) {
	sess.state = domain.StateRevealed

	s.bc.Broadcast(sess.code, EventRevealAnswer, RevealPayload{
		Session:       snapshot(sess),
		CorrectOption: sess.questions[sess.current].CorrectOption,
	})

	slog.InfoContext(ctx, "session: answer revealed",
		"code", sess.code,
		"question", sess.current,
	)
}

// NextQuestion advances a revealed round to the next question, or to
// game over past the last one. Host only; anything else is a silent
// no-op since the requester may be racing a disconnect.
func (s *Service) NextQuestion(ctx context.Context, code, connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[code]
	if !ok || sess.host != connectionID || sess.state != domain.StateRevealed {
		return
	}

	sess.current++
	sess.resetRound()

	if sess.current >= len(sess.questions) {
		sess.state = domain.StateGameOver

		// Stable sort: ties keep join order.
		sort.SliceStable(sess.players, func(i, j int) bool {
			return sess.players[i].score > sess.players[j].score
		})

		s.metrics.gamesCompleted.Inc()
		s.bc.Broadcast(sess.code, EventGameOver, snapshot(sess))
		s.eb.Publish(ctx, domain.EventSessionEnded{SessionCode: sess.code})

		slog.InfoContext(ctx, "session: game over", "code", sess.code)
		return
	}

	sess.state = domain.StateInRound
	s.bc.Broadcast(sess.code, EventGameStarted, snapshot(sess))
}

// RemoveConnection removes the connection's player from every session
// holding it. A session emptied by the removal is deleted from the
// registry; otherwise the remaining members get one session-updated.
func (s *Service) RemoveConnection(ctx context.Context, connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for code, sess := range s.sessions {
		idx := -1
		for i, p := range sess.players {
			if p.connectionID == connectionID {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}

		sess.players = append(sess.players[:idx], sess.players[idx+1:]...)

		if len(sess.players) == 0 {
			delete(s.sessions, code)
			s.metrics.activeSessions.Set(float64(len(s.sessions)))

			s.eb.Publish(ctx, domain.EventSessionEnded{SessionCode: code})

			slog.InfoContext(ctx, "session: removed empty session", "code", code)
			continue
		}

		s.bc.Broadcast(sess.code, EventSessionUpdated, snapshot(sess))
	}
}

func (sess *liveSession) resetRound() {
	sess.answers = 0
	for _, p := range sess.players {
		p.answered = false
	}
}

// snapshot copies the live state into an outward view. The current
// question is visible only while a round is active or revealed, and
// never includes the correct option.
func snapshot(sess *liveSession) *domain.Session {
	snap := &domain.Session{
		Code:            sess.code,
		Host:            sess.host,
		State:           sess.state,
		Players:         make([]domain.Player, 0, len(sess.players)),
		QuestionCount:   len(sess.questions),
		CurrentQuestion: sess.current,
	}

	for _, p := range sess.players {
		snap.Players = append(snap.Players, domain.Player{
			ConnectionID: p.connectionID,
			Nickname:     p.nickname,
			Score:        p.score,
		})
	}

	if sess.state == domain.StateInRound || sess.state == domain.StateRevealed {
		q := sess.questions[sess.current]
		snap.Question = &domain.RoundQuestion{
			Prompt:  q.Prompt,
			Options: q.Options,
		}
	}

	return snap
}
