package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/candyxpe/supportbot/internal/domain"
)

// chatPeerOffset converts a chat id into a peer id.
const chatPeerOffset = 2_000_000_000

// StaffChannel posts notifications into the staff group chat.
type StaffChannel struct {
	client *Client
	chatID int64
}

// NewStaffChannel creates a channel for the given chat id.
func NewStaffChannel(client *Client, chatID int64) *StaffChannel {
	return &StaffChannel{client: client, chatID: chatID}
}

type conversationsResponse struct {
	Count int               `json:"count"`
	Items []json.RawMessage `json:"items"`
}

// Available probes whether the bot can see the staff chat.
// It returns domain.ErrChannelUnavailable when the chat is not listed.
func (s *StaffChannel) Available(ctx context.Context) error {
	var resp conversationsResponse
	err := s.client.Call(ctx, "messages.getConversationsById", map[string]string{
		"peer_ids": strconv.FormatInt(chatPeerOffset+s.chatID, 10),
	}, &resp)
	if err != nil {
		return err
	}
	if len(resp.Items) == 0 {
		return domain.ErrChannelUnavailable
	}
	return nil
}

// Post checks availability and sends the formatted post to the staff chat.
func (s *StaffChannel) Post(ctx context.Context, post domain.StaffPost) error {
	if err := s.Available(ctx); err != nil {
		return err
	}

	params := map[string]string{
		"chat_id":   strconv.FormatInt(s.chatID, 10),
		"message":   s.Format(ctx, post),
		"random_id": randomID(),
	}
	if len(post.Attachments) > 0 {
		params["attachment"] = strings.Join(post.Attachments, ",")
	}
	if err := s.client.Call(ctx, "messages.send", params, nil); err != nil {
		return fmt.Errorf("post to staff chat: %w", err)
	}
	return nil
}

// Format renders a post as label, sender card with a dialog link, and body.
func (s *StaffChannel) Format(ctx context.Context, post domain.StaffPost) string {
	id := strconv.FormatInt(post.SenderID, 10)
	name := s.client.UserName(ctx, post.SenderID)
	link := "https://vk.com/gim" + strconv.FormatInt(s.client.GroupID(), 10) + "?sel=" + id

	var b strings.Builder
	b.WriteString(post.Label)
	b.WriteString("\n👤 Пользователь: [id" + id + "|" + name + "]")
	b.WriteString("\n📨 Диалог: [Перейти|" + link + "]")
	b.WriteString("\n\n")
	b.WriteString(post.Text)
	return b.String()
}
