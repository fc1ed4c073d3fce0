// Package storagetest holds the behaviour every storage.Provider must share.
package storagetest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
)

// Factory returns an initialized, empty provider.
type Factory func(t *testing.T) storage.Provider

// Run exercises p against the shared provider contract.
func Run(t *testing.T, newProvider Factory) {
	t.Run("GetMissing", func(t *testing.T) {
		p := newProvider(t)
		_, err := p.Get(context.Background(), storage.Key{User: "ana", Kind: storage.KindHabits})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("InvalidKey", func(t *testing.T) {
		p := newProvider(t)
		ctx := context.Background()
		assert.ErrorIs(t, p.Set(ctx, storage.Key{Kind: storage.KindHabits}, []byte("[]")), storage.ErrInvalidKey)
		assert.ErrorIs(t, p.Set(ctx, storage.Key{User: "ana", Kind: storage.KindDay}, []byte("{}")), storage.ErrInvalidKey)
		_, err := p.Get(ctx, storage.Key{User: "ana", Kind: "bogus"})
		assert.ErrorIs(t, err, storage.ErrInvalidKey)
	})

	t.Run("SetGetDelete", func(t *testing.T) {
		p := newProvider(t)
		ctx := context.Background()
		key := storage.Key{User: "ana", Kind: storage.KindDay, Day: "2024-01-05"}

		require.NoError(t, p.Set(ctx, key, []byte(`{"v":1}`)))
		got, err := p.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":1}`, string(got))

		require.NoError(t, p.Set(ctx, key, []byte(`{"v":2}`)))
		got, err = p.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(got))

		require.NoError(t, p.Delete(ctx, key))
		_, err = p.Get(ctx, key)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, p.Delete(ctx, key), "deleting a missing key is not an error")
	})

	t.Run("ListOrderedByDay", func(t *testing.T) {
		p := newProvider(t)
		ctx := context.Background()
		for _, day := range []string{"2024-01-07", "2024-01-05", "2024-01-06"} {
			require.NoError(t, p.Set(ctx, storage.Key{User: "ana", Kind: storage.KindDay, Day: day}, []byte(`"`+day+`"`)))
		}
		require.NoError(t, p.Set(ctx, storage.Key{User: "bo", Kind: storage.KindDay, Day: "2024-01-01"}, []byte(`"x"`)))
		require.NoError(t, p.Set(ctx, storage.Key{User: "ana", Kind: storage.KindHabits}, []byte(`[]`)))

		recs, err := p.List(ctx, "ana", storage.KindDay)
		require.NoError(t, err)
		require.Len(t, recs, 3)
		for i, day := range []string{"2024-01-05", "2024-01-06", "2024-01-07"} {
			assert.Equal(t, day, recs[i].Key.Day)
			assert.Equal(t, storage.KindDay, recs[i].Key.Kind)
			assert.Equal(t, `"`+day+`"`, string(recs[i].Value))
		}

		recs, err = p.List(ctx, "ana", storage.KindHabits)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "", recs[0].Key.Day)

		recs, err = p.List(ctx, "nobody", storage.KindDay)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("UpdateCreatesAndModifies", func(t *testing.T) {
		p := newProvider(t)
		ctx := context.Background()
		key := storage.Key{User: "ana", Kind: storage.KindSeries}

		out, err := p.Update(ctx, key, func(cur []byte) ([]byte, error) {
			assert.Nil(t, cur)
			return []byte("1"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "1", string(out))

		out, err = p.Update(ctx, key, func(cur []byte) ([]byte, error) {
			return append(cur, '0'), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "10", string(out))
	})

	t.Run("UpdateErrorLeavesValue", func(t *testing.T) {
		p := newProvider(t)
		ctx := context.Background()
		key := storage.Key{User: "ana", Kind: storage.KindSeries}
		require.NoError(t, p.Set(ctx, key, []byte("keep")))

		boom := errors.New("boom")
		_, err := p.Update(ctx, key, func([]byte) ([]byte, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)

		got, err := p.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "keep", string(got))
	})

	t.Run("ConcurrentUpdatesAreAtomic", func(t *testing.T) {
		p := newProvider(t)
		ctx := context.Background()
		key := storage.Key{User: "ana", Kind: storage.KindAnswers, Day: "2024-01-05"}

		const workers, perWorker = 4, 25
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					_, err := p.Update(ctx, key, func(cur []byte) ([]byte, error) {
						n := 0
						if cur != nil {
							var err error
							if n, err = strconv.Atoi(string(cur)); err != nil {
								return nil, err
							}
						}
						return []byte(strconv.Itoa(n + 1)), nil
					})
					if err != nil {
						errs <- err
						return
					}
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := p.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(workers*perWorker), string(got))
	})

	t.Run("Users", func(t *testing.T) {
		p := newProvider(t)
		ctx := context.Background()
		require.NoError(t, p.Set(ctx, storage.Key{User: "bo", Kind: storage.KindMemories}, []byte("[]")))
		require.NoError(t, p.Set(ctx, storage.Key{User: "ana", Kind: storage.KindHabits}, []byte("[]")))
		require.NoError(t, p.Set(ctx, storage.Key{User: "ana", Kind: storage.KindSeries}, []byte("[]")))

		users, err := p.Users(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"ana", "bo"}, users)

		require.NoError(t, p.Delete(ctx, storage.Key{User: "bo", Kind: storage.KindMemories}))
		users, err = p.Users(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"ana"}, users)
	})

	t.Run("Settings", func(t *testing.T) {
		p := newProvider(t)
		settings, err := p.GetSettings()
		require.NoError(t, err)
		assert.Equal(t, "me", settings.DefaultUser)

		want := models.Settings{DefaultUser: "ana", Timezone: "Europe/London", RetentionDays: 14}
		require.NoError(t, p.SaveSettings(want))
		got, err := p.GetSettings()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Ping", func(t *testing.T) {
		p := newProvider(t)
		assert.NoError(t, p.Ping(context.Background()))
	})
}
