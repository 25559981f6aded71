// Package cache keeps recently read form definitions in Redis. Submissions read the same form
// over and over, so GetForm is served from the cache. Every write through the decorator bumps a
// per-form generation, and a cached entry is only served while its generation is current.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/formx360/formx/internal/metrics"
	"github.com/formx360/formx/internal/storage"
	"github.com/formx360/formx/pkg/schema"
)

const (
	DefaultTTL = 5 * time.Minute
	keyPrefix  = "formx:form:"
	genPrefix  = "formx:form-gen:"
)

// entry is the cached value: the form and the generation it was read under.
type entry struct {
	Gen  int64       `json:"gen"`
	Form schema.Form `json:"form"`
}

// FormStore is a read-through cache in front of another FormStore.
type FormStore struct {
	client redis.Cmdable
	next   storage.FormStore
	ttl    time.Duration
	log    logrus.FieldLogger
}

var _ storage.FormStore = (*FormStore)(nil)

// NewFormStore decorates next. A non-positive ttl uses DefaultTTL.
func NewFormStore(client redis.Cmdable, next storage.FormStore, ttl time.Duration) *FormStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FormStore{client: client, next: next, ttl: ttl, log: logrus.StandardLogger()}
}

// SetLogger replaces the logger used for cache faults.
func (c *FormStore) SetLogger(l logrus.FieldLogger) {
	c.log = l
}

func (c *FormStore) key(id string) string    { return keyPrefix + id }
func (c *FormStore) genKey(id string) string { return genPrefix + id }

// GetForm serves from Redis when possible. Redis faults fall back to the wrapped store.
// The generation is read before the wrapped store, so a form read while a write commits is
// stored under the old generation and never served.
func (c *FormStore) GetForm(ctx context.Context, id string) (schema.Form, error) {
	vals, err := c.client.MGet(ctx, c.key(id), c.genKey(id)).Result()
	cacheable := err == nil
	var gen int64
	if err != nil {
		metrics.RecordCacheLookup("error")
		c.log.WithError(err).WithField("form_id", id).Warn("form cache read failed")
	} else {
		gen = generation(vals[1])
		if f, ok := decodeEntry(vals[0], gen); ok {
			metrics.RecordCacheLookup("hit")
			return f, nil
		}
		metrics.RecordCacheLookup("miss")
	}

	f, err := c.next.GetForm(ctx, id)
	if err != nil {
		return schema.Form{}, err
	}
	if cacheable {
		c.store(ctx, gen, f)
	}
	return f, nil
}

func (c *FormStore) CreateForm(ctx context.Context, f schema.Form) (schema.Form, error) {
	return c.next.CreateForm(ctx, f)
}

func (c *FormStore) ListForms(ctx context.Context, companyID string) ([]schema.Form, error) {
	return c.next.ListForms(ctx, companyID)
}

func (c *FormStore) UpdateForm(ctx context.Context, f schema.Form) (schema.Form, error) {
	updated, err := c.next.UpdateForm(ctx, f)
	c.invalidate(ctx, f.ID)
	return updated, err
}

func (c *FormStore) DeleteForm(ctx context.Context, id string) error {
	err := c.next.DeleteForm(ctx, id)
	c.invalidate(ctx, id)
	return err
}

func (c *FormStore) store(ctx context.Context, gen int64, f schema.Form) {
	raw, err := json.Marshal(entry{Gen: gen, Form: f})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(f.ID), raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("form_id", f.ID).Warn("form cache write failed")
	}
}

// invalidate runs after the wrapped store committed. Bumping the generation retires every entry
// read before the commit, including ones a concurrent reader has yet to store.
func (c *FormStore) invalidate(ctx context.Context, id string) {
	if err := c.client.Incr(ctx, c.genKey(id)).Err(); err != nil {
		c.log.WithError(err).WithField("form_id", id).Warn("form cache generation bump failed")
	}
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		c.log.WithError(err).WithField("form_id", id).Warn("form cache eviction failed")
	}
}

// generation parses the MGET slot of a generation key. A missing key is generation 0.
func generation(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func decodeEntry(v any, gen int64) (schema.Form, bool) {
	s, ok := v.(string)
	if !ok {
		return schema.Form{}, false
	}
	var e entry
	if err := json.Unmarshal([]byte(s), &e); err != nil || e.Gen != gen {
		return schema.Form{}, false
	}
	return e.Form, true
}
