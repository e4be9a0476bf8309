// Package telegram manda el texto del evento a un chat vía Bot API.
package telegram

import (
	"context"
	"errors"
	"time"

	"pet-health-tracker/internal/platform/httpclient"
	"pet-health-tracker/internal/ports/notify"
)

const DefaultBaseURL = "https://api.telegram.org"

type Notifier struct {
	client *httpclient.Client
	token  string
	chatID string
}

var _ notify.Notifier = (*Notifier)(nil)

func New(baseURL, token, chatID string, timeout time.Duration) (*Notifier, error) {
	if token == "" || chatID == "" {
		return nil, errors.New("telegram: token and chat id required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c, err := httpclient.New(baseURL, timeout, httpclient.WithRetries(2, 500*time.Millisecond))
	if err != nil {
		return nil, err
	}
	return &Notifier{client: c, token: token, chatID: chatID}, nil
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (n *Notifier) Notify(ctx context.Context, ev notify.Event) error {
	text := ev.Text
	if text == "" {
		text = ev.Subject
	}

	var out sendMessageResponse
	err := n.client.PostJSON(ctx, "/bot"+n.token+"/sendMessage", sendMessageRequest{ChatID: n.chatID, Text: text}, &out)
	if err != nil {
		return err
	}
	if !out.OK {
		return errors.New("telegram: " + out.Description)
	}
	return nil
}
