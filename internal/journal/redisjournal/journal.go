// Package redisjournal stores the journal in a Redis hash so several
// operators, or a crashed host and its replacement, can share one
// deployment's progress.
//
// All entries of a namespace live in a single hash keyed by action id.
// Writes are compare-and-swap: the new entry is computed from the value
// last read and a Lua script only stores it if the field still holds that
// value. Redis must be configured for durable writes (AOF with fsync) for
// the journal to survive a Redis restart.
package redisjournal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/journal"
)

// DefaultNamespace is used when Options.Namespace is empty.
const DefaultNamespace = "default"

const keyPrefix = "deploygrid:journal:"

// maxRetries bounds the compare-and-swap loop.
const maxRetries = 64

// casScript stores ARGV[3] in field ARGV[1] if it currently holds ARGV[2]
// (the empty string standing for a missing field).
var casScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if cur == false then cur = '' end
if cur ~= ARGV[2] then return 0 end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
return 1
`)

// Options configures the journal.
type Options struct {
	// Namespace separates deployments sharing one Redis.
	Namespace string
}

// Journal is a journal.Journal on Redis.
type Journal struct {
	client redis.UniversalClient
	key    string
	owned  bool
}

var _ journal.Journal = (*Journal)(nil)

// New wraps an existing client. Close does not close it.
func New(client redis.UniversalClient, opts Options) *Journal {
	ns := opts.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return &Journal{client: client, key: keyPrefix + ns}
}

// Dial connects to the Redis at url (redis://host:port/db) and checks it
// answers.
func Dial(ctx context.Context, url string, opts Options) (*Journal, error) {
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(ropts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	j := New(client, opts)
	j.owned = true
	return j, nil
}

// Key returns the Redis hash holding the entries.
func (j *Journal) Key() string { return j.key }

// Lookup returns the entry of id.
func (j *Journal) Lookup(ctx context.Context, id actionid.ID) (journal.Entry, error) {
	raw, err := j.client.HGet(ctx, j.key, id.String()).Result()
	if errors.Is(err, redis.Nil) {
		return journal.Entry{}, journal.ErrNotFound
	}
	if err != nil {
		return journal.Entry{}, fmt.Errorf("reading journal entry: %w", err)
	}
	return j.decode(id.String(), raw)
}

// RecordStart marks id in flight.
func (j *Journal) RecordStart(ctx context.Context, rec journal.Record) (journal.Entry, error) {
	return j.update(ctx, rec, journal.ApplyStart)
}

// RecordCompletion moves an in-flight entry to completed.
func (j *Journal) RecordCompletion(ctx context.Context, rec journal.Record) (journal.Entry, error) {
	return j.update(ctx, rec, journal.ApplyCompletion)
}

// RecordFailure marks id failed.
func (j *Journal) RecordFailure(ctx context.Context, rec journal.Record) (journal.Entry, error) {
	return j.update(ctx, rec, journal.ApplyFailure)
}

// Entries returns a sorted snapshot.
func (j *Journal) Entries(ctx context.Context) ([]journal.Entry, error) {
	all, err := j.client.HGetAll(ctx, j.key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	out := make([]journal.Entry, 0, len(all))
	for field, raw := range all {
		e, err := j.decode(field, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	journal.SortEntries(out)
	return out, nil
}

// Close closes the client if Dial created it.
func (j *Journal) Close() error {
	if j.owned {
		return j.client.Close()
	}
	return nil
}

func (j *Journal) update(ctx context.Context, rec journal.Record, apply func(*journal.Entry, journal.Record) (journal.Entry, error)) (journal.Entry, error) {
	field := rec.ID.String()
	for attempt := 0; attempt < maxRetries; attempt++ {
		raw, err := j.client.HGet(ctx, j.key, field).Result()
		var cur *journal.Entry
		switch {
		case errors.Is(err, redis.Nil):
			raw = ""
		case err != nil:
			return journal.Entry{}, fmt.Errorf("reading journal entry: %w", err)
		default:
			e, derr := j.decode(field, raw)
			if derr != nil {
				return journal.Entry{}, derr
			}
			cur = &e
		}

		next, err := apply(cur, rec)
		if err != nil {
			return journal.Entry{}, err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return journal.Entry{}, fmt.Errorf("encoding journal entry: %w", err)
		}
		swapped, err := casScript.Run(ctx, j.client, []string{j.key}, field, raw, string(data)).Int()
		if err != nil {
			return journal.Entry{}, fmt.Errorf("writing journal entry: %w", err)
		}
		if swapped == 1 {
			return next, nil
		}
	}
	return journal.Entry{}, fmt.Errorf("writing journal entry %s: too much contention", field)
}

func (j *Journal) decode(field, raw string) (journal.Entry, error) {
	location := j.key + "/" + field
	var e journal.Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return journal.Entry{}, &journal.JournalCorruptionError{Location: location, ActionID: field, Reason: "malformed record", Err: err}
	}
	if e.ActionID != field {
		return journal.Entry{}, &journal.JournalCorruptionError{Location: location, ActionID: field, Reason: fmt.Sprintf("record belongs to %q", e.ActionID)}
	}
	if err := journal.Validate(e, location); err != nil {
		return journal.Entry{}, err
	}
	return e, nil
}
