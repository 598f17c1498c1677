// ABOUTME: Platform event types and envelope decoding for webhook deliveries
// ABOUTME: One envelope carries an ordered batch of follow/message/postback events

package webhook

import (
	"encoding/json"
	"fmt"
)

// EventType identifies the platform event variants the gateway handles.
type EventType string

const (
	EventFollow   EventType = "follow"
	EventMessage  EventType = "message"
	EventPostback EventType = "postback"
)

// Event is one decoded platform event. Text is set for message events,
// PostbackData for postback events. ID is the platform's webhook event id,
// stable across redeliveries of the same event.
type Event struct {
	ID           string
	Type         EventType
	UserID       string
	ReplyToken   string
	Timestamp    int64 // platform event time, unix milliseconds
	Text         string
	PostbackData string
}

// Envelope is one webhook delivery: a destination bot id and an ordered
// batch of events sharing it.
type Envelope struct {
	Destination string
	Events      []Event
}

// wire structures mirror the platform's JSON envelope.
type wireEnvelope struct {
	Destination string      `json:"destination"`
	Events      []wireEvent `json:"events"`
}

type wireEvent struct {
	Type       string `json:"type"`
	EventID    string `json:"webhookEventId"`
	ReplyToken string `json:"replyToken"`
	Timestamp  int64  `json:"timestamp"`
	Source     struct {
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
	Postback struct {
		Data string `json:"data"`
	} `json:"postback"`
}

// ParseEnvelope decodes a raw delivery body. Events of unknown type and
// non-text messages are dropped individually; their siblings survive, so a
// single odd event never poisons the batch.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var we wireEnvelope
	if err := json.Unmarshal(body, &we); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}

	env := &Envelope{Destination: we.Destination}
	for _, ev := range we.Events {
		switch EventType(ev.Type) {
		case EventFollow:
			env.Events = append(env.Events, Event{
				ID:         ev.EventID,
				Type:       EventFollow,
				UserID:     ev.Source.UserID,
				ReplyToken: ev.ReplyToken,
				Timestamp:  ev.Timestamp,
			})
		case EventMessage:
			if ev.Message.Type != "text" {
				continue
			}
			env.Events = append(env.Events, Event{
				ID:         ev.EventID,
				Type:       EventMessage,
				UserID:     ev.Source.UserID,
				ReplyToken: ev.ReplyToken,
				Timestamp:  ev.Timestamp,
				Text:       ev.Message.Text,
			})
		case EventPostback:
			env.Events = append(env.Events, Event{
				ID:           ev.EventID,
				Type:         EventPostback,
				UserID:       ev.Source.UserID,
				ReplyToken:   ev.ReplyToken,
				Timestamp:    ev.Timestamp,
				PostbackData: ev.Postback.Data,
			})
		}
	}
	return env, nil
}
