package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/votearena/go/internal/competition/events"
)

func TestPublishReachesMatchingSubscribers(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()
	competitionID := uuid.New()

	votes, err := bus.Subscribe(ctx, competitionID, events.KindVoteInserted)
	require.NoError(t, err)
	other, err := bus.Subscribe(ctx, uuid.New(), events.KindVoteInserted)
	require.NoError(t, err)

	env, err := events.NewEnvelope(competitionID, events.KindVoteInserted, events.VoteInserted{VoteID: uuid.New()})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, env))

	got := <-votes.Events()
	assert.Equal(t, env.EventID, got.EventID)
	assert.Empty(t, other.Events())
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	id := uuid.New()
	sub, err := bus.Subscribe(context.Background(), id, events.KindContestantUpdated)
	require.NoError(t, err)
	assert.Equal(t, 1, bus.Subscribers(id, events.KindContestantUpdated))

	sub.Unsubscribe()
	sub.Unsubscribe()

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.Zero(t, bus.Subscribers(id, events.KindContestantUpdated))
}

func TestFailNextSubscribe(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	bus.FailNextSubscribe(boom)

	_, err := bus.Subscribe(context.Background(), uuid.New(), events.KindVoteInserted)
	assert.ErrorIs(t, err, boom)

	_, err = bus.Subscribe(context.Background(), uuid.New(), events.KindVoteInserted)
	assert.NoError(t, err)
	assert.Equal(t, 2, bus.SubscribeCalls())
}

func TestDropAndClose(t *testing.T) {
	bus := NewBus()
	id := uuid.New()
	sub, err := bus.Subscribe(context.Background(), id, events.KindVoteInserted)
	require.NoError(t, err)

	bus.Drop(id, events.KindVoteInserted)
	_, ok := <-sub.Events()
	assert.False(t, ok)

	bus.Close()
	_, err = bus.Subscribe(context.Background(), id, events.KindVoteInserted)
	assert.ErrorIs(t, err, ErrClosed)
}
