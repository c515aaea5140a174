package infra

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewRedisClientEmptyURL(t *testing.T) {
	client, err := NewRedisClient(context.Background(), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if client != nil {
		t.Fatalf("expected nil client for empty url")
	}
}

func TestNewRedisClientConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Fatalf("expected v, got %q", got)
	}
}

func TestNewRedisClientBadURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "://nope"); err == nil {
		t.Fatalf("expected parse error")
	}
}
