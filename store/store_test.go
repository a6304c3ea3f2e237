package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/katalvlaran/sparsegrid/learner"
	"github.com/katalvlaran/sparsegrid/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func openStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.db")
	s, err := store.Open(path)
	require.NoError(t, err)

	return s, path
}

// fitted learns a small 2D interpolant and returns its snapshot.
func fitted(t *testing.T) learner.Snapshot {
	t.Helper()
	spec, err := learner.NewSpecification(2,
		learner.WithName("product"),
		learner.WithStopPolicy(learner.StopPolicyDescriptor{MaxIterations: 2}),
	)
	require.NoError(t, err)
	ip, err := learner.NewInterpolant(func(x []float64) float64 { return x[0] * x[1] }, spec)
	require.NoError(t, err)
	_, err = ip.Learn(context.Background())
	require.NoError(t, err)
	snap, err := ip.Snapshot()
	require.NoError(t, err)

	return snap
}

func TestPutGetRoundTrip(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()
	snap := fitted(t)

	id, err := s.PutSnapshot("product", snap)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	rec, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "product", rec.Name)
	assert.False(t, rec.Created.IsZero())
	assert.Equal(t, snap.Kind, rec.Model.Kind)
	assert.Equal(t, snap.Alpha, rec.Model.Alpha)
	assert.Equal(t, snap.Grid, rec.Model.Grid)
	assert.Equal(t, snap.Spec, rec.Model.Spec)
	assert.Equal(t, snap.History, rec.Model.History)

	g, alpha, err := rec.Model.Model()
	require.NoError(t, err)
	v, err := g.Eval(alpha, []float64{0.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-12)
}

func TestListAndDelete(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()
	snap := fitted(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second, err := s.Put(store.Record{Name: "second", Created: base.Add(time.Hour), Model: snap})
	require.NoError(t, err)
	first, err := s.Put(store.Record{Name: "first", Created: base, Model: snap})
	require.NoError(t, err)

	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, first, infos[0].ID)
	assert.Equal(t, second, infos[1].ID)
	assert.Equal(t, "interpolant", infos[0].Kind)
	assert.Equal(t, 2, infos[0].Dim)
	assert.Equal(t, len(snap.Alpha), infos[0].GridSize)
	assert.True(t, base.Equal(infos[0].Created))

	require.NoError(t, s.Delete(first))
	_, err = s.Get(first)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Delete(first), store.ErrNotFound)

	infos, err = s.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
}

func TestPutOverwritesExplicitID(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()
	id := uuid.NewString()

	_, err := s.Put(store.Record{ID: id, Name: "v1"})
	require.NoError(t, err)
	_, err = s.Put(store.Record{ID: id, Name: "v2"})
	require.NoError(t, err)

	rec, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "v2", rec.Name)

	_, err = s.Put(store.Record{ID: "not-a-uuid"})
	require.ErrorIs(t, err, store.ErrBadID)
	_, err = s.Get("not-a-uuid")
	require.ErrorIs(t, err, store.ErrBadID)
}

func TestChecksumDetectsCorruption(t *testing.T) {
	s, path := openStore(t)
	id, err := s.Put(store.Record{Name: "victim"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	db, err := bolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(store.BucketName))
		v := append([]byte(nil), b.Get([]byte(id))...)
		v[len(v)-1] ^= 0xff
		if err := b.Put([]byte(id), v); err != nil {
			return err
		}
		return b.Put([]byte(uuid.NewString()), []byte{1, 2})
	}))
	require.NoError(t, db.Close())

	s, err = store.Open(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Get(id)
	require.ErrorIs(t, err, store.ErrChecksum)
	_, err = s.List()
	require.Error(t, err)
}

func TestClosedStore(t *testing.T) {
	s, path := openStore(t)
	require.NoError(t, s.Close())
	_, err := s.Get(uuid.NewString())
	require.ErrorIs(t, err, store.ErrClosed)

	ok, err := store.Exists(path)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Exists(filepath.Join(t.TempDir(), "missing.db"))
	require.NoError(t, err)
	assert.False(t, ok)
}
