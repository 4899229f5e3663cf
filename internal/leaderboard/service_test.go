package leaderboard_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/quizroom/quizroom/internal/domain"
	"github.com/quizroom/quizroom/internal/errors"
	"github.com/quizroom/quizroom/internal/event"
	"github.com/quizroom/quizroom/internal/leaderboard"
)

func TestService_UpdateLeaderboard(t *testing.T) {
	s := makeService(t)

	for _, e := range []domain.EventScoreUpdated{
		{Score: domain.Score{SessionCode: "ABC123", Nickname: "alice", TotalScore: 10, UpdateTime: time.Now()}},
		{Score: domain.Score{SessionCode: "ABC123", Nickname: "bob", TotalScore: 5, UpdateTime: time.Now()}},
		{Score: domain.Score{SessionCode: "ABC123", Nickname: "alice", TotalScore: 15, UpdateTime: time.Now()}},
	} {
		require.NoError(t, s.UpdateLeaderboard(context.Background(), e))
	}

	resp, err := s.GetLeaderboard(context.Background(), leaderboard.GetLeaderboardRequest{
		SessionCode: "ABC123",
	})
	require.NoError(t, err)

	want := &domain.Leaderboard{
		SessionCode: "ABC123",
		Entries: []domain.LeaderboardEntry{
			{Nickname: "alice", Score: 15},
			{Nickname: "bob", Score: 5},
		},
	}
	require.Equal(t, want, resp)
}

func TestService_RemoveLeaderboard(t *testing.T) {
	s := makeService(t)

	err := s.UpdateLeaderboard(context.Background(), domain.EventScoreUpdated{
		Score: domain.Score{SessionCode: "ABC123", Nickname: "alice", TotalScore: 10, UpdateTime: time.Now()},
	})
	require.NoError(t, err)

	err = s.RemoveLeaderboard(context.Background(), domain.EventSessionEnded{SessionCode: "ABC123"})
	require.NoError(t, err)

	_, err = s.GetLeaderboard(context.Background(), leaderboard.GetLeaderboardRequest{
		SessionCode: "ABC123",
	})
	require.Error(t, err)
	require.Equal(t, errors.CodeNotFound, errors.Convert(err).Code)
}

func TestService_PublishLeaderboardUpdated(t *testing.T) {
	type (
		inputs struct {
			receivedEvents []domain.EventScoreUpdated
		}

		outputs struct {
			publishedEvents []domain.EventLeaderboardUpdated
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"should publish leaderboard.updated after receiving score.updated": {
			arrange: func() inputs {
				return inputs{
					receivedEvents: []domain.EventScoreUpdated{
						{
							Score: domain.Score{
								SessionCode: "AAAA11",
								Nickname:    "alice",
								TotalScore:  10,
								UpdateTime:  time.Now(),
							},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.publishedEvents, 1, "should receive 1 leaderboard updated event")
				require.Equal(t, domain.Leaderboard{
					SessionCode: "AAAA11",
					Entries: []domain.LeaderboardEntry{
						{Nickname: "alice", Score: 10},
					},
				}, out.publishedEvents[0].Leaderboard)
			},
		},

		"should publish separately for different sessions": {
			arrange: func() inputs {
				return inputs{
					receivedEvents: []domain.EventScoreUpdated{
						{
							Score: domain.Score{
								SessionCode: "AAAA11",
								Nickname:    "alice",
								TotalScore:  10,
								UpdateTime:  time.Now(),
							},
						},
						{
							Score: domain.Score{
								SessionCode: "BBBB22",
								Nickname:    "bob",
								TotalScore:  5,
								UpdateTime:  time.Now(),
							},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.publishedEvents, 2, "should receive 2 leaderboard updated events")
			},
		},

		"should throttle updates for the same session within the publish interval": {
			arrange: func() inputs {
				return inputs{
					receivedEvents: []domain.EventScoreUpdated{
						{
							Score: domain.Score{
								SessionCode: "AAAA11",
								Nickname:    "alice",
								TotalScore:  10,
								UpdateTime:  time.Now(),
							},
						},
						{
							Score: domain.Score{
								SessionCode: "AAAA11",
								Nickname:    "bob",
								TotalScore:  5,
								UpdateTime:  time.Now(),
							},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.publishedEvents, 1, "should receive 1 leaderboard updated event")
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in, out := tt.arrange(), outputs{}

			eb := event.NewBus()

			var mu sync.Mutex
			eb.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
				mu.Lock()
				out.publishedEvents = append(out.publishedEvents, e.(domain.EventLeaderboardUpdated))
				mu.Unlock()
				return nil
			})

			s := makeService(t,
				withEventBus(eb),
			)

			for _, e := range in.receivedEvents {
				err := s.UpdateLeaderboard(context.Background(), e)
				require.NoError(t, err)
			}

			eb.Stop()

			tt.assert(t, out)
		})
	}
}

func makeService(t *testing.T, opts ...options) *leaderboard.Service {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	c := leaderboard.Config{
		EventBus: event.NewBus(),
		Redis:    rc,
		Prefix:   "test:leaderboard",
	}

	for _, opt := range opts {
		opt(&c)
	}

	return leaderboard.NewService(c)
}

type options func(c *leaderboard.Config)

func withEventBus(eb *event.Bus) options {
	return func(c *leaderboard.Config) {
		c.EventBus = eb
	}
}
