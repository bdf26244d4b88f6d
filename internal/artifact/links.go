package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"proposalkit/internal/util"
)

var ErrLinkNotFound = errors.New("artifact: download link not found or expired")

const defaultLinkTTL = 15 * time.Minute

// Link is a short-lived handle on a stored file.
type Link struct {
	ID        string    `json:"id"`
	ObjectKey string    `json:"object_key"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LinkStore keeps download links in Redis with a TTL.
type LinkStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewLinkStore connects to redisURL and verifies the connection.
func NewLinkStore(redisURL string, ttl time.Duration) (*LinkStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewLinkStoreWithClient(client, ttl), nil
}

// NewLinkStoreWithClient creates a store from an existing Redis client
func NewLinkStoreWithClient(client *redis.Client, ttl time.Duration) *LinkStore {
	if ttl <= 0 {
		ttl = defaultLinkTTL
	}
	return &LinkStore{client: client, prefix: "download:", ttl: ttl, now: time.Now}
}

func (s *LinkStore) key(id string) string {
	return s.prefix + id
}

func (s *LinkStore) TTL() time.Duration {
	return s.ttl
}

// Create issues a new link to objectKey.
func (s *LinkStore) Create(ctx context.Context, objectKey, filename, mimeType string) (Link, error) {
	now := s.now().UTC()
	link := Link{
		ID:        util.NewID(""),
		ObjectKey: objectKey,
		Filename:  filename,
		MimeType:  mimeType,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	data, err := json.Marshal(link)
	if err != nil {
		return Link{}, fmt.Errorf("marshal link: %w", err)
	}
	if err := s.client.Set(ctx, s.key(link.ID), data, s.ttl).Err(); err != nil {
		return Link{}, fmt.Errorf("save link: %w", err)
	}
	return link, nil
}

// Resolve returns the link for id, or ErrLinkNotFound once it expired.
func (s *LinkStore) Resolve(ctx context.Context, id string) (Link, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Link{}, ErrLinkNotFound
	}
	if err != nil {
		return Link{}, fmt.Errorf("lookup link: %w", err)
	}
	var link Link
	if err := json.Unmarshal(data, &link); err != nil {
		return Link{}, fmt.Errorf("unmarshal link: %w", err)
	}
	return link, nil
}

// Revoke deletes a link before it expires.
func (s *LinkStore) Revoke(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("revoke link: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *LinkStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *LinkStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
