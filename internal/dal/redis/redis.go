package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// Client represents a Redis client.
type Client struct {
	client    *redis.Client
	namespace string
}

// Redis returns the underlying go-redis client.
func (c *Client) Redis() *redis.Client {
	return c.client
}

// Key builds a namespaced key such as "pos:session:<token>".
func (c *Client) Key(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", c.namespace, operation, key)
}

// Close closes the connection pool for graceful shutdown.
func (c *Client) Close() error {
	return c.client.Close()
}

// MustNewClient creates a new Redis client.
func MustNewClient() *Client {
	addr := fmt.Sprintf("%s:%d", viper.GetString("redis.host"), viper.GetInt("redis.port"))
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	slog.Info("Redis connected", "addr", addr)

	return NewClient(client, viper.GetString("redis.namespace"))
}

// NewClient wraps an existing go-redis client.
func NewClient(client *redis.Client, namespace string) *Client {
	if namespace == "" {
		namespace = "pos"
	}

	return &Client{
		client:    client,
		namespace: namespace,
	}
}
