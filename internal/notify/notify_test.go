package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeCreator struct {
	got *twilioapi.CreateMessageParams
	sid *string
	err error
}

func (f *fakeCreator) CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error) {
	f.got = params
	if f.err != nil {
		return nil, f.err
	}
	return &twilioapi.ApiV2010Message{Sid: f.sid}, nil
}

func TestExpiryMessage(t *testing.T) {
	expiry := time.Date(2026, 3, 12, 23, 30, 0, 0, time.UTC)

	got := ExpiryMessage("Milk", ExpiryDate(expiry))

	assert.Equal(t, "Your Milk is expiring on 2026-03-12. Use it soon!", got)
}

func TestExpiryDate_UsesUTCDay(t *testing.T) {
	// 01:00 on the 13th in UTC+2 is still the 12th in UTC.
	loc := time.FixedZone("UTC+2", 2*60*60)
	expiry := time.Date(2026, 3, 13, 1, 0, 0, 0, loc)

	assert.Equal(t, "2026-03-12", ExpiryDate(expiry))
}

func TestNewTwilioSender_RequiresCredentials(t *testing.T) {
	_, err := NewTwilioSender("AC123", "", "+15550001111")
	assert.Error(t, err)

	s, err := NewTwilioSender("AC123", "token", "+15550001111")
	require.NoError(t, err)
	assert.NotNil(t, s.api)
}

func TestTwilioSender_Send(t *testing.T) {
	sid := "SM0123456789"
	fake := &fakeCreator{sid: &sid}
	s := &TwilioSender{api: fake, from: "+15550001111"}

	got, err := s.Send(context.Background(), "+15552223333", "hello")
	require.NoError(t, err)
	assert.Equal(t, sid, got)

	require.NotNil(t, fake.got)
	assert.Equal(t, "+15552223333", *fake.got.To)
	assert.Equal(t, "+15550001111", *fake.got.From)
	assert.Equal(t, "hello", *fake.got.Body)
}

func TestTwilioSender_SendErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		s := &TwilioSender{api: &fakeCreator{err: errors.New("21211 invalid 'To'")}, from: "+1"}
		_, err := s.Send(context.Background(), "+15552223333", "hi")
		assert.ErrorContains(t, err, "21211")
	})

	t.Run("missing sid", func(t *testing.T) {
		s := &TwilioSender{api: &fakeCreator{}, from: "+1"}
		_, err := s.Send(context.Background(), "+15552223333", "hi")
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		fake := &fakeCreator{}
		s := &TwilioSender{api: fake, from: "+1"}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.Send(ctx, "+15552223333", "hi")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, fake.got, "no API call after cancel")
	})

	t.Run("empty recipient", func(t *testing.T) {
		s := &TwilioSender{api: &fakeCreator{}, from: "+1"}
		_, err := s.Send(context.Background(), "", "hi")
		assert.Error(t, err)
	})
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(slog.New(slog.NewTextHandler(io.Discard, nil)))

	sid1, err := s.Send(context.Background(), "+15552223333", "hi")
	require.NoError(t, err)
	sid2, _ := s.Send(context.Background(), "+15552223333", "hi")

	assert.Regexp(t, `^LOG`, sid1)
	assert.NotEqual(t, sid1, sid2)
}
