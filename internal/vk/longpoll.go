package vk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/candyxpe/supportbot/internal/domain"
)

// DefaultLongPollWait is how long the server holds a check request open.
const DefaultLongPollWait = 25 * time.Second

// LongPoll receives community events through the bots long poll API.
type LongPoll struct {
	client *Client
	wait   time.Duration
	now    func() time.Time

	server string
	key    string
	ts     string
}

// NewLongPoll creates a poller for the client's community.
func NewLongPoll(client *Client, wait time.Duration) *LongPoll {
	if wait <= 0 {
		wait = DefaultLongPollWait
	}
	return &LongPoll{client: client, wait: wait, now: time.Now}
}

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

type serverResponse struct {
	Key    string     `json:"key"`
	Server string     `json:"server"`
	TS     flexString `json:"ts"`
}

type checkResponse struct {
	TS      flexString `json:"ts"`
	Failed  int        `json:"failed"`
	Updates []update   `json:"updates"`
}

type update struct {
	Type    string          `json:"type"`
	EventID string          `json:"event_id"`
	Object  json.RawMessage `json:"object"`
}

type messageNew struct {
	Message wireMessage `json:"message"`
}

type wireMessage struct {
	FromID      int64            `json:"from_id"`
	PeerID      int64            `json:"peer_id"`
	Text        string           `json:"text"`
	Payload     string           `json:"payload"`
	Out         int              `json:"out"`
	Attachments []wireAttachment `json:"attachments"`
}

type wireAttachment struct {
	Type   string
	Object struct {
		ID        int64  `json:"id"`
		OwnerID   int64  `json:"owner_id"`
		AccessKey string `json:"access_key"`
	}
}

// UnmarshalJSON decodes {"type": "photo", "photo": {...}}.
func (a *wireAttachment) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw["type"], &a.Type); err != nil {
		return fmt.Errorf("attachment type: %w", err)
	}
	if body, ok := raw[a.Type]; ok {
		if err := json.Unmarshal(body, &a.Object); err != nil {
			return fmt.Errorf("attachment %s: %w", a.Type, err)
		}
	}
	return nil
}

func (lp *LongPoll) refresh(ctx context.Context, keepTS bool) error {
	var resp serverResponse
	err := lp.client.Call(ctx, "groups.getLongPollServer", map[string]string{
		"group_id": strconv.FormatInt(lp.client.GroupID(), 10),
	}, &resp)
	if err != nil {
		return fmt.Errorf("get long poll server: %w", err)
	}
	lp.server = resp.Server
	lp.key = resp.Key
	if !keepTS || lp.ts == "" {
		lp.ts = string(resp.TS)
	}
	return nil
}

// check performs one a_check request. failed=1 only advances ts;
// failed=2 and failed=3 return ErrLongPollKeyExpired.
func (lp *LongPoll) check(ctx context.Context) ([]update, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, lp.wait+10*time.Second)
	defer cancel()

	resp, err := lp.client.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"act":  "a_check",
			"key":  lp.key,
			"ts":   lp.ts,
			"wait": strconv.Itoa(int(lp.wait / time.Second)),
		}).
		Get(lp.server)
	if err != nil {
		return nil, false, fmt.Errorf("long poll check: %w", err)
	}
	if resp.IsError() {
		return nil, false, fmt.Errorf("long poll check: unexpected status %d", resp.StatusCode())
	}

	var body checkResponse
	if err := json.Unmarshal(resp.Bytes(), &body); err != nil {
		return nil, false, fmt.Errorf("long poll check: decode: %w", err)
	}

	switch body.Failed {
	case 0:
		lp.ts = string(body.TS)
		return body.Updates, false, nil
	case 1:
		lp.ts = string(body.TS)
		return nil, false, nil
	case 2:
		return nil, true, ErrLongPollKeyExpired
	default:
		return nil, false, ErrLongPollKeyExpired
	}
}

// Events yields inbound messages until ctx is done. A transport failure is
// yielded once as an error and ends the sequence; callers restart it.
func (lp *LongPoll) Events(ctx context.Context) iter.Seq2[domain.Event, error] {
	return func(yield func(domain.Event, error) bool) {
		if err := lp.refresh(ctx, true); err != nil {
			if ctx.Err() == nil {
				yield(domain.Event{}, err)
			}
			return
		}

		for ctx.Err() == nil {
			updates, keepTS, err := lp.check(ctx)
			if errors.Is(err, ErrLongPollKeyExpired) {
				lp.client.logger.Info("Long poll key expired, refreshing", "keep_ts", keepTS)
				if err := lp.refresh(ctx, keepTS); err != nil {
					if ctx.Err() == nil {
						yield(domain.Event{}, err)
					}
					return
				}
				continue
			}
			if err != nil {
				if ctx.Err() == nil {
					yield(domain.Event{}, err)
				}
				return
			}

			for _, u := range updates {
				ev, ok := lp.toEvent(u)
				if !ok {
					continue
				}
				if !yield(ev, nil) {
					return
				}
			}
		}
	}
}

func (lp *LongPoll) toEvent(u update) (domain.Event, bool) {
	if u.Type != "message_new" {
		return domain.Event{}, false
	}
	var obj messageNew
	if err := json.Unmarshal(u.Object, &obj); err != nil {
		lp.client.logger.Warn("Skipping malformed message_new", "event_id", u.EventID, "error", err)
		return domain.Event{}, false
	}
	m := obj.Message

	fromChat := m.PeerID >= chatPeerOffset
	addressed := m.Out == 0 && m.FromID > 0
	if fromChat {
		addressed = addressed && strings.Contains(m.Text, "[club"+strconv.FormatInt(lp.client.GroupID(), 10))
	}

	ev := domain.Event{
		ID:             uuid.NewString(),
		SenderID:       m.FromID,
		PeerID:         m.PeerID,
		Text:           strings.TrimSpace(m.Text),
		Payload:        m.Payload,
		FromGroupChat:  fromChat,
		AddressedToBot: addressed,
		ReceivedAt:     lp.now(),
	}
	for _, a := range m.Attachments {
		ev.Attachments = append(ev.Attachments, domain.Attachment{
			Type:      a.Type,
			OwnerID:   a.Object.OwnerID,
			ID:        a.Object.ID,
			AccessKey: a.Object.AccessKey,
		})
	}
	return ev, true
}
