// Package vk implements the messaging transport on top of the VK API:
// method calls, the bots long poll and the staff chat.
package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"resty.dev/v3"

	"github.com/candyxpe/supportbot/internal/domain"
	"github.com/candyxpe/supportbot/internal/ratelimit"
)

// Defaults for Config fields left empty.
const (
	DefaultAPIURL     = "https://api.vk.com/method"
	DefaultAPIVersion = "5.199"

	callTimeout   = 15 * time.Second
	nameCacheSize = 1024
)

// Config configures the API client.
type Config struct {
	Token      string
	GroupID    int64
	APIVersion string
	APIURL     string
}

// Client calls VK API methods. Every method call passes through the shared
// rate gate.
type Client struct {
	http   *resty.Client
	cfg    Config
	gate   *ratelimit.Gate
	logger *slog.Logger

	namesMu sync.Mutex
	names   map[int64]string
}

// NewClient creates a client. The gate is shared with any other caller that
// spends the same account budget.
func NewClient(cfg Config, gate *ratelimit.Gate, logger *slog.Logger) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if logger == nil {
		logger = slog.Default()
	}
	if gate == nil {
		gate = ratelimit.NewGate(ratelimit.DefaultMinInterval, logger)
	}
	return &Client{
		http:   resty.New(),
		cfg:    cfg,
		gate:   gate,
		logger: logger,
		names:  make(map[int64]string),
	}
}

// GroupID returns the community id the client acts for.
func (c *Client) GroupID() int64 {
	return c.cfg.GroupID
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *struct {
		Code    int    `json:"error_code"`
		Message string `json:"error_msg"`
	} `json:"error"`
}

// Call invokes an API method and decodes its "response" field into out
// (which may be nil). Platform errors are returned as *APIError.
func (c *Client) Call(ctx context.Context, method string, params map[string]string, out any) error {
	_, err := ratelimit.Invoke(ctx, c.gate, method, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.call(ctx, method, params, out)
	})
	return err
}

func (c *Client) call(ctx context.Context, method string, params map[string]string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	form := make(map[string]string, len(params)+2)
	for k, v := range params {
		form[k] = v
	}
	form["access_token"] = c.cfg.Token
	form["v"] = c.cfg.APIVersion

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(strings.TrimRight(c.cfg.APIURL, "/") + "/" + method)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode())
	}

	var env envelope
	if err := json.Unmarshal(resp.Bytes(), &env); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if env.Error != nil {
		return &APIError{Method: method, Code: env.Error.Code, Message: env.Error.Message}
	}
	if out != nil && len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, out); err != nil {
			return fmt.Errorf("%s: decode payload: %w", method, err)
		}
	}
	return nil
}

type userInfo struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Validate checks the access token with a users.get call.
func (c *Client) Validate(ctx context.Context) error {
	var users []userInfo
	if err := c.Call(ctx, "users.get", map[string]string{"user_ids": "1"}, &users); err != nil {
		return fmt.Errorf("validate token: %w", err)
	}
	return nil
}

// UserName returns "First Last" for a user, or "id<N>" when the lookup fails.
// Successful lookups are cached.
func (c *Client) UserName(ctx context.Context, userID int64) string {
	c.namesMu.Lock()
	name, ok := c.names[userID]
	c.namesMu.Unlock()
	if ok {
		return name
	}

	var users []userInfo
	err := c.Call(ctx, "users.get", map[string]string{"user_ids": strconv.FormatInt(userID, 10)}, &users)
	if err != nil || len(users) == 0 {
		return "id" + strconv.FormatInt(userID, 10)
	}
	name = strings.TrimSpace(users[0].FirstName + " " + users[0].LastName)

	c.namesMu.Lock()
	if len(c.names) >= nameCacheSize {
		clear(c.names)
	}
	c.names[userID] = name
	c.namesMu.Unlock()
	return name
}

// Send delivers a direct message to a user.
func (c *Client) Send(ctx context.Context, userID int64, msg domain.Message) error {
	params := map[string]string{
		"user_id":   strconv.FormatInt(userID, 10),
		"message":   msg.Text,
		"random_id": randomID(),
	}
	if msg.Keyboard != nil {
		kb, err := MarshalKeyboard(*msg.Keyboard)
		if err != nil {
			return err
		}
		params["keyboard"] = kb
	}
	if len(msg.Attachments) > 0 {
		params["attachment"] = strings.Join(msg.Attachments, ",")
	}
	return c.Call(ctx, "messages.send", params, nil)
}

func randomID() string {
	return strconv.FormatInt(int64(int32(uuid.New().ID())), 10)
}
