package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/fillblank/internal/model"
	"github.com/mcoot/fillblank/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recorder) Notify(ctx context.Context, event model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Event(nil), r.events...)
}

type NotifySuite struct {
	suite.Suite
	mini   *miniredis.Miniredis
	client *redis.Client
	ctx    context.Context
	event  model.Event
}

func TestNotifySuite(t *testing.T) {
	suite.Run(t, new(NotifySuite))
}

func (s *NotifySuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.ctx = context.Background()
	s.event = model.Event{
		Type:      model.EventPlayerJoined,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		SessionID: "game-1",
		GameName:  "friday",
		Player:    "alice",
		Version:   4,
	}
}

func (s *NotifySuite) TearDownTest() {
	_ = s.client.Close()
	s.mini.Close()
}

func (s *NotifySuite) TestEncodeDecode() {
	data, err := Encode(s.event)
	s.Require().NoError(err)
	s.JSONEq(`{
		"type": "player_joined",
		"timestamp": "2024-01-01T12:00:00Z",
		"session_id": "game-1",
		"game_name": "friday",
		"player": "alice",
		"version": 4
	}`, string(data))

	decoded, err := Decode(data)
	s.Require().NoError(err)
	s.Equal(s.event, decoded)
}

func (s *NotifySuite) TestMultiDeliversToAllAndJoinsErrors() {
	first, second := &recorder{}, &recorder{}
	boom := errors.New("boom")
	failing := Func(func(context.Context, model.Event) error { return boom })

	err := Multi{first, failing, second}.Notify(s.ctx, s.event)

	s.ErrorIs(err, boom)
	s.Len(first.Events(), 1)
	s.Len(second.Events(), 1)
}

func (s *NotifySuite) TestNop() {
	s.NoError(Nop{}.Notify(s.ctx, s.event))
}

func (s *NotifySuite) TestPublisherPublishesOnChannel() {
	sub := s.client.Subscribe(s.ctx, DefaultChannel)
	defer sub.Close()
	_, err := sub.Receive(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(NewPublisher(s.client, DefaultChannel).Notify(s.ctx, s.event))

	msg, err := sub.ReceiveMessage(s.ctx)
	s.Require().NoError(err)
	s.Equal(DefaultChannel, msg.Channel)
	decoded, err := Decode([]byte(msg.Payload))
	s.Require().NoError(err)
	s.Equal(s.event, decoded)
}

func (s *NotifySuite) TestRelayForwardsPublishedEvents() {
	target := &recorder{}
	relay := NewRelay(s.client, DefaultChannel, target, testutil.NopLogger())

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	s.Require().Eventually(func() bool {
		return s.mini.PubSubNumSub(DefaultChannel)[DefaultChannel] == 1
	}, time.Second, 10*time.Millisecond)

	// Malformed payloads are skipped
	s.mini.Publish(DefaultChannel, "not json")
	s.Require().NoError(NewPublisher(s.client, DefaultChannel).Notify(s.ctx, s.event))

	s.Require().Eventually(func() bool {
		return len(target.Events()) == 1
	}, time.Second, 10*time.Millisecond)
	s.Equal(s.event, target.Events()[0])

	cancel()
	s.Require().Eventually(func() bool {
		select {
		case err := <-done:
			return err == nil
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
