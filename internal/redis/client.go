package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// RoomKey holds the scalar fields of a session.
func RoomKey(code string) string {
	return fmt.Sprintf("room:%s", code)
}

// RoomPlayersKey is a sorted set of members scored by join sequence.
func RoomPlayersKey(code string) string {
	return fmt.Sprintf("room:%s:players", code)
}

// RoomScoresKey maps every current or former member to their points.
func RoomScoresKey(code string) string {
	return fmt.Sprintf("room:%s:scores", code)
}

// RoomChannel carries "something changed" notifications for pollers.
func RoomChannel(code string) string {
	return fmt.Sprintf("room-events:%s", code)
}
