package natsbus

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/votearena/go/internal/competition/events"
)

func TestSubject(t *testing.T) {
	id := uuid.MustParse("6f1c2d7e-8a8e-4c1b-9d55-0b7b1f0e2a11")
	assert.Equal(t,
		"competition.events.6f1c2d7e-8a8e-4c1b-9d55-0b7b1f0e2a11.vote_inserted",
		subject("competition.events", id, events.KindVoteInserted))
}

func TestDecodeEnvelope(t *testing.T) {
	id := uuid.New()
	env, err := events.NewEnvelope(id, events.KindContestantUpdated, events.ContestantUpdated{ID: uuid.New()})
	require.NoError(t, err)

	data := []byte(`{"eventId":"` + env.EventID.String() + `","kind":"contestant_updated","competitionId":"` +
		id.String() + `","payload":` + string(env.Payload) + `}`)

	got, err := decodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env.EventID, got.EventID)
	assert.Equal(t, events.KindContestantUpdated, got.Kind)

	_, err = decodeEnvelope([]byte(`{"kind":"vote_inserted"}`))
	assert.Error(t, err)
	_, err = decodeEnvelope([]byte(`not json`))
	assert.Error(t, err)
}

func TestSubscriptionUnsubscribeIsIdempotent(t *testing.T) {
	sub := &subscription{ch: make(chan events.Envelope, 1), done: make(chan struct{})}
	sub.deliver(events.Envelope{EventID: uuid.New()})

	sub.Unsubscribe()
	sub.Unsubscribe()
	sub.deliver(events.Envelope{EventID: uuid.New()})

	_, ok := <-sub.Events()
	assert.True(t, ok, "buffered event is still readable")
	_, ok = <-sub.Events()
	assert.False(t, ok)
}

func TestStreamConfigEquality(t *testing.T) {
	c := &Conn{cfg: DefaultConfig()}
	a := c.streamConfig()
	b := c.streamConfig()
	assert.True(t, isStreamConfigEqual(a, b))

	b.Subjects = []string{"other.>"}
	assert.False(t, isStreamConfigEqual(a, b))
}
