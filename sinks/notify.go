package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/maastricht-university/signbridge/clients"
)

// Notifier delivers a finalized sentence to the meeting chat.
type Notifier interface {
	Notify(ctx context.Context, msg clients.ChatMessage) error
}

// HTTPNotifier posts to the chat endpoint. When a secret is set every request
// carries a short-lived HS256 bearer token.
type HTTPNotifier struct {
	http   *clients.HTTP
	url    string
	room   string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewHTTPNotifier(h *clients.HTTP, url, room string, secret []byte) (*HTTPNotifier, error) {
	if url == "" {
		return nil, errors.New("chat: url is empty")
	}
	return &HTTPNotifier{http: h, url: url, room: room, secret: secret, ttl: time.Minute, now: time.Now}, nil
}

type chatClaims struct {
	Room string `json:"room"`
	jwt.RegisteredClaims
}

func (n *HTTPNotifier) token(sender string) (string, error) {
	if len(n.secret) == 0 {
		return "", nil
	}
	now := n.now()
	claims := chatClaims{
		Room: n.room,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sender,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(n.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(n.secret)
}

func (n *HTTPNotifier) Notify(ctx context.Context, msg clients.ChatMessage) error {
	tok, err := n.token(msg.Sender)
	if err != nil {
		return fmt.Errorf("chat token: %w", err)
	}
	return n.http.Chat(ctx, n.url, tok, msg)
}

// Publisher is the subset of the redis client used for chat fan-out.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes chat messages as JSON on a pub/sub channel.
type RedisNotifier struct {
	pub     Publisher
	channel string
}

func NewRedisNotifier(addr, channel string) *RedisNotifier {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisNotifier{pub: rdb, channel: channel}
}

func NewRedisNotifierWith(pub Publisher, channel string) *RedisNotifier {
	return &RedisNotifier{pub: pub, channel: channel}
}

func (r *RedisNotifier) Notify(ctx context.Context, msg clients.ChatMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := r.pub.Publish(ctx, r.channel, b).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", r.channel, err)
	}
	return nil
}

// Close releases the redis connection pool when the notifier owns it.
func (r *RedisNotifier) Close() error {
	if c, ok := r.pub.(*redis.Client); ok {
		return c.Close()
	}
	return nil
}
