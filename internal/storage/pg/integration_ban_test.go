package pg

import (
	"testing"
	"time"

	"github.com/jgbyrne/plainchant/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bansFor(t *testing.T, ip domain.Ip) []domain.Ban {
	t.Helper()
	all, err := storage.GetBans()
	require.NoError(t, err)

	var matched []domain.Ban
	for _, b := range all {
		if b.Ip == ip {
			matched = append(matched, b)
		}
	}
	return matched
}

func TestBans(t *testing.T) {
	ip := domain.Ip("192.0.2.77")
	t.Cleanup(func() { require.NoError(t, storage.DeleteBans(ip)) })

	t.Run("renewed bans accumulate as rows", func(t *testing.T) {
		first := pgNow().Add(time.Hour)
		second := pgNow().Add(48 * time.Hour)

		require.NoError(t, storage.CreateBan(domain.Ban{Ip: ip, Expires: first}))
		require.NoError(t, storage.CreateBan(domain.Ban{Ip: ip, Expires: second}))

		bans := bansFor(t, ip)
		require.Len(t, bans, 2)
		assert.WithinDuration(t, first, bans[0].Expires, 0)
		assert.WithinDuration(t, second, bans[1].Expires, 0)
		assert.NotZero(t, bans[0].Id)
	})

	t.Run("delete removes every row for the ip", func(t *testing.T) {
		other := domain.Ip("192.0.2.78")
		require.NoError(t, storage.CreateBan(domain.Ban{Ip: other, Expires: pgNow().Add(time.Hour)}))
		t.Cleanup(func() { require.NoError(t, storage.DeleteBans(other)) })

		require.NoError(t, storage.DeleteBans(ip))
		assert.Empty(t, bansFor(t, ip))
		assert.Len(t, bansFor(t, other), 1, "other ips unaffected")
	})

	t.Run("deleting an unbanned ip is a no-op", func(t *testing.T) {
		require.NoError(t, storage.DeleteBans("192.0.2.99"))
	})
}
