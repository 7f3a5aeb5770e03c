package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the slice of the Twilio REST client we call.
// *twilioapi.ApiService satisfies it.
type messageCreator interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// TwilioSender sends SMS through Twilio's Messages API.
type TwilioSender struct {
	api  messageCreator
	from string
}

// NewTwilioSender builds a sender from account credentials and the Twilio
// number messages are sent from.
func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, errors.New("notify: twilio account sid, auth token and from number are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{api: client.Api, from: from}, nil
}

// Send creates one outbound message.
//
// The Twilio SDK call takes no context; we only check ctx before the request
// so a cancelled sweep stops handing out new messages.
func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if to == "" {
		return "", errors.New("notify: recipient phone number is empty")
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("notify: twilio create message: %w", err)
	}
	if msg == nil || msg.Sid == nil {
		return "", errors.New("notify: twilio response has no message sid")
	}
	return *msg.Sid, nil
}
