package redisjournal

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/specialistvlad/deploygrid/internal/journal"
	"github.com/specialistvlad/deploygrid/internal/journal/journaltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestJournal(t *testing.T) {
	journaltest.Run(t, func(t *testing.T) journal.Journal {
		_, client := newClient(t)
		return New(client, Options{Namespace: t.Name()})
	})
}

func TestNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	_, client := newClient(t)
	a := New(client, Options{Namespace: "mainnet"})
	b := New(client, Options{})
	assert.Equal(t, "deploygrid:journal:default", b.Key())

	id := journaltest.DeployID("Router")
	_, err := a.RecordStart(ctx, journal.Record{ID: id})
	require.NoError(t, err)

	_, err = b.Lookup(ctx, id)
	assert.ErrorIs(t, err, journal.ErrNotFound)
}

func TestDial(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	j, err := Dial(ctx, "redis://"+mr.Addr()+"/0", Options{Namespace: "dial"})
	require.NoError(t, err)
	id := journaltest.CallID("ping")
	_, err = j.RecordFailure(ctx, journal.Record{ID: id, Error: "nope"})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	assert.True(t, mr.Exists("deploygrid:journal:dial"))

	_, err = Dial(ctx, "not a url", Options{})
	assert.Error(t, err)
}

func TestCorruptRecord(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	j := New(client, Options{Namespace: "bad"})

	mr.HSet(j.Key(), "Suite#Broken", "{not json")
	_, err := j.Lookup(ctx, journaltest.DeployID("Broken"))
	require.Error(t, err)
	assert.True(t, journal.IsCorruption(err))

	mr.HSet(j.Key(), "Suite#Broken", `{"action_id":"Suite#Other","status":"failed"}`)
	_, err = j.Entries(ctx)
	assert.ErrorContains(t, err, "record belongs to")

	mr.HSet(j.Key(), "Suite#Broken", `{"action_id":"Suite#Broken","status":"completed","kind":"deploy"}`)
	_, err = j.RecordStart(ctx, journal.Record{ID: journaltest.DeployID("Broken")})
	assert.True(t, journal.IsCorruption(err))
}
