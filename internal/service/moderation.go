package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/jgbyrne/plainchant/shared/domain"
	"github.com/jgbyrne/plainchant/shared/logger"
)

// ModerationStorage defines the database operations needed for ban management.
type ModerationStorage interface {
	GetBans() ([]domain.Ban, error)
	CreateBan(ban domain.Ban) error
	DeleteBans(ip domain.Ip) error
}

// CooldownKind selects which of the two independent cooldown maps an
// operation addresses. Originals and replies cool down separately, with
// separate durations.
type CooldownKind int

const (
	CooldownOriginal CooldownKind = iota
	CooldownReply
)

// cooldownMap is a lock-guarded ip -> next-allowed-time table. Cooldowns
// live only in memory: a restart clears running rate limits by design.
type cooldownMap struct {
	mu    sync.RWMutex
	until map[domain.Ip]time.Time
}

func newCooldownMap() *cooldownMap {
	return &cooldownMap{until: make(map[domain.Ip]time.Time)}
}

func (m *cooldownMap) active(ip domain.Ip, now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.until[ip]
	return ok && t.After(now)
}

func (m *cooldownMap) set(ip domain.Ip, until time.Time) {
	m.mu.Lock()
	m.until[ip] = until
	m.mu.Unlock()
}

// ModerationCache answers "may this IP post right now" without a database
// round-trip. The ban map mirrors persisted ban rows, collapsed to the
// maximum expiry per IP; it is updated incrementally on every ban/unban made
// through this cache and never reloaded wholesale. External edits to the
// bans table are not observed until restart.
type ModerationCache struct {
	storage ModerationStorage

	mu   sync.RWMutex
	bans map[domain.Ip]time.Time

	originalCooldowns *cooldownMap
	replyCooldowns    *cooldownMap
}

// NewModerationCache loads all persisted bans once and builds the in-memory
// mirror. Cooldown maps start empty.
func NewModerationCache(storage ModerationStorage) (*ModerationCache, error) {
	bans, err := storage.GetBans()
	if err != nil {
		return nil, fmt.Errorf("failed to load bans: %w", err)
	}

	cache := make(map[domain.Ip]time.Time, len(bans))
	for _, ban := range bans {
		if existing, ok := cache[ban.Ip]; !ok || existing.Before(ban.Expires) {
			cache[ban.Ip] = ban.Expires
		}
	}
	logger.Log.Info("moderation cache initialized", "banned_ips", len(cache))

	return &ModerationCache{
		storage:           storage,
		bans:              cache,
		originalCooldowns: newCooldownMap(),
		replyCooldowns:    newCooldownMap(),
	}, nil
}

// IsBanned reports whether ip has a ban expiring after now. Absence means
// not banned.
func (mc *ModerationCache) IsBanned(ip domain.Ip, now time.Time) bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	expires, ok := mc.bans[ip]
	return ok && expires.After(now)
}

// BanIp persists a new ban row and then raises the cached expiry for ip to
// max(existing, now+length). The store write happens first so a failed
// write cannot leave a ghost ban visible only in memory; the lock is never
// held across the storage call.
func (mc *ModerationCache) BanIp(ip domain.Ip, length time.Duration) error {
	expires := time.Now().UTC().Add(length)
	if err := mc.storage.CreateBan(domain.Ban{Ip: ip, Expires: expires}); err != nil {
		return err
	}

	mc.mu.Lock()
	if existing, ok := mc.bans[ip]; !ok || existing.Before(expires) {
		mc.bans[ip] = expires
	}
	mc.mu.Unlock()

	logger.Log.Info("ip banned", "ip", ip, "expires", expires)
	return nil
}

// UnbanIp deletes every persisted ban row for ip, then drops the cache entry
// entirely so a later re-ban is not computed against a stale maximum.
func (mc *ModerationCache) UnbanIp(ip domain.Ip) error {
	if err := mc.storage.DeleteBans(ip); err != nil {
		return err
	}

	mc.mu.Lock()
	delete(mc.bans, ip)
	mc.mu.Unlock()

	logger.Log.Info("ip unbanned", "ip", ip)
	return nil
}

func (mc *ModerationCache) cooldowns(kind CooldownKind) *cooldownMap {
	if kind == CooldownReply {
		return mc.replyCooldowns
	}
	return mc.originalCooldowns
}

// WithinCooldown reports whether ip must still wait before the next
// submission of the given kind.
func (mc *ModerationCache) WithinCooldown(kind CooldownKind, ip domain.Ip, now time.Time) bool {
	return mc.cooldowns(kind).active(ip, now)
}

// SetCooldown records the next time ip may submit a post of the given kind.
func (mc *ModerationCache) SetCooldown(kind CooldownKind, ip domain.Ip, until time.Time) {
	mc.cooldowns(kind).set(ip, until)
}
