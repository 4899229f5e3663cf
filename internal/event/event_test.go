package event_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quizroom/quizroom/internal/event"
)

func TestBus_PublishSubscribe(t *testing.T) {
	type (
		inputs struct {
			published   []event.Event
			subscribers []subscriber
		}

		outputs struct {
			received map[string][]event.Event
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"a subscriber should only receive events it subscribed to": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						eventWithName("score.updated"),
						eventWithName("session.ended"),
					},
					subscribers: []subscriber{
						{
							name:        "s1",
							subscribeTo: []string{"score.updated"},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{eventWithName("score.updated")}, out.received["s1"])
			},
		},

		"repeated events should all be delivered": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						eventWithName("score.updated"),
						eventWithName("score.updated"),
						eventWithName("score.updated"),
					},
					subscribers: []subscriber{
						{
							name:        "s1",
							subscribeTo: []string{"score.updated"},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.Len(t, out.received["s1"], 3)
			},
		},

		"an event should be dispatched to every subscriber": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						eventWithName("session.ended"),
					},
					subscribers: []subscriber{
						{
							name:        "s1",
							subscribeTo: []string{"session.ended"},
						},
						{
							name:        "s2",
							subscribeTo: []string{"session.ended"},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{eventWithName("session.ended")}, out.received["s1"])
				assert.ElementsMatch(t, []event.Event{eventWithName("session.ended")}, out.received["s2"])
			},
		},

		"overlapping subscriptions should each get their share": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						eventWithName("score.updated"),
						eventWithName("leaderboard.updated"),
						eventWithName("score.updated"),
						eventWithName("session.ended"),
					},
					subscribers: []subscriber{
						{
							name:        "s1",
							subscribeTo: []string{"score.updated"},
						},
						{
							name:        "s2",
							subscribeTo: []string{"score.updated", "leaderboard.updated"},
						},
						{
							name:        "s3",
							subscribeTo: []string{"session.ended", "leaderboard.updated"},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{eventWithName("score.updated"), eventWithName("score.updated")}, out.received["s1"])
				assert.ElementsMatch(t, []event.Event{eventWithName("score.updated"), eventWithName("score.updated"), eventWithName("leaderboard.updated")}, out.received["s2"])
				assert.ElementsMatch(t, []event.Event{eventWithName("session.ended"), eventWithName("leaderboard.updated")}, out.received["s3"])
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()
			mu := sync.Mutex{}
			out := outputs{received: make(map[string][]event.Event)}

			b := event.NewBus()
			for _, s := range in.subscribers {
				s := s
				for _, e := range s.subscribeTo {
					b.Subscribe(e, func(ctx context.Context, e event.Event) error {
						mu.Lock()
						out.received[s.name] = append(out.received[s.name], e)
						mu.Unlock()
						return nil
					})
				}
			}

			for _, e := range in.published {
				b.Publish(context.Background(), e)
			}
			b.Stop()

			tt.assert(t, out)
		})
	}
}

func TestBus_HandlerFailureDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	b := event.NewBus(event.WithMaxInFlight(2))

	b.Subscribe("e", func(ctx context.Context, e event.Event) error {
		return errors.New("boom")
	})

	var (
		mu    sync.Mutex
		calls int
	)
	b.Subscribe("e", func(ctx context.Context, e event.Event) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	for i := 0; i < 5; i++ {
		b.Publish(context.Background(), eventWithName("e"))
	}
	b.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, calls)
}

type eventWithName string

func (e eventWithName) Name() string {
	return string(e)
}

type subscriber struct {
	name        string
	subscribeTo []string
}
