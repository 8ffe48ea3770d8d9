// Package events connects note writes and imports to the message broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jotnotes/apiserver/types"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Broker is the publishing side of mq.MQ.
type Broker interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Publisher announces note writes on a single channel. Failures are
// logged and never reach the caller.
type Publisher struct {
	broker  Broker
	channel string
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewPublisher(broker Broker, channel string, log *zap.SugaredLogger) *Publisher {
	return &Publisher{
		broker:  broker,
		channel: channel,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (p *Publisher) Publish(ctx context.Context, eventType string, note types.Note) {
	event := types.NoteEvent{
		Type:       eventType,
		NoteID:     note.ID,
		UserID:     note.UserID,
		Title:      note.Title,
		Content:    note.Content,
		OccurredAt: p.now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Errorw("event encode", "type", eventType, "note_id", note.ID, "error", err)
		return
	}

	// the request may finish before the broker answers
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	id, err := p.broker.Publish(pubCtx, p.channel, data, map[string]string{"type": eventType})
	if err != nil {
		p.log.Errorw("event publish", "type", eventType, "note_id", note.ID, "channel", p.channel, "error", err)
		return
	}
	p.log.Debugw("event publish", "type", eventType, "note_id", note.ID, "message_id", id)
}
