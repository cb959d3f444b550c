// Package flash carries one-time status messages across a redirect.
package flash

import (
	"context"                 // Context for Redis operations
	"encoding/base64"         // Cookie-safe payload
	"encoding/json"           // Payload encoding
	"minibank/internal/utils" // Redis JSON helpers
	"net/http"                // SameSite modes
	"time"                    // Flash lifetime

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // Flash ids
	"github.com/redis/go-redis/v9" // Redis client
)

// Kind tells the page how to style a message
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// DefaultTTL bounds how long an unread flash survives
const DefaultTTL = 5 * time.Minute

const (
	idCookie      = "flash_id"
	payloadCookie = "flash"
	keyPrefix     = "flash:"
)

// Flash is a message shown once on the next rendered page
type Flash struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Store keeps at most one pending flash per browser
type Store interface {
	Put(c *gin.Context, f Flash) error
	Pop(c *gin.Context) (*Flash, error)
}

// RedisStore keeps the message in Redis and only an opaque id in the cookie
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	secure bool
}

// NewRedisStore returns a Store backed by rdb
func NewRedisStore(rdb *redis.Client, ttl time.Duration, secure bool) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, secure: secure}
}

func (s *RedisStore) Put(c *gin.Context, f Flash) error {
	ctx := requestContext(c)
	if old, err := c.Cookie(idCookie); err == nil && validID(old) {
		_ = utils.DeleteCache(ctx, s.rdb, keyPrefix+old) // Replace an unread flash
	}
	id := uuid.NewString()
	if err := utils.SetCache(ctx, s.rdb, keyPrefix+id, f, s.ttl); err != nil {
		return err
	}
	setCookie(c, idCookie, id, int(s.ttl.Seconds()), s.secure)
	return nil
}

func (s *RedisStore) Pop(c *gin.Context) (*Flash, error) {
	id, err := c.Cookie(idCookie)
	if err != nil || id == "" {
		return nil, nil
	}
	setCookie(c, idCookie, "", -1, s.secure)
	if !validID(id) {
		return nil, nil // Not one of ours
	}
	var f Flash
	found, err := utils.PopCache(requestContext(c), s.rdb, keyPrefix+id, &f)
	if err != nil || !found {
		return nil, err
	}
	return &f, nil
}

// CookieStore carries the message itself in a short-lived cookie
type CookieStore struct {
	ttl    time.Duration
	secure bool
}

// NewCookieStore returns a Store that needs no server-side state
func NewCookieStore(ttl time.Duration, secure bool) *CookieStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CookieStore{ttl: ttl, secure: secure}
}

func (s *CookieStore) Put(c *gin.Context, f Flash) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	setCookie(c, payloadCookie, base64.RawURLEncoding.EncodeToString(b), int(s.ttl.Seconds()), s.secure)
	return nil
}

func (s *CookieStore) Pop(c *gin.Context) (*Flash, error) {
	raw, err := c.Cookie(payloadCookie)
	if err != nil || raw == "" {
		return nil, nil
	}
	setCookie(c, payloadCookie, "", -1, s.secure)
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, nil // Garbage cookie, drop it
	}
	var f Flash
	if err := json.Unmarshal(b, &f); err != nil || f.Message == "" {
		return nil, nil
	}
	return &f, nil
}

func setCookie(c *gin.Context, name, value string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", secure, true)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func requestContext(c *gin.Context) context.Context {
	if c.Request != nil {
		return c.Request.Context()
	}
	return context.Background()
}
