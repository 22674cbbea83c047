package service

import (
	"sync"
	"testing"
	"time"

	"github.com/jgbyrne/plainchant/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type mockSubmissionStorage struct {
	createOriginalFunc func(orig domain.Original) (domain.PostNum, error)
	createReplyFunc    func(reply domain.Reply) (domain.PostNum, error)

	mu              sync.Mutex
	originalsCalled int
	repliesCalled   int
	lastOriginal    domain.Original
	lastReply       domain.Reply
}

func (m *mockSubmissionStorage) CreateOriginal(orig domain.Original) (domain.PostNum, error) {
	m.mu.Lock()
	m.originalsCalled++
	m.lastOriginal = orig
	m.mu.Unlock()

	if m.createOriginalFunc != nil {
		return m.createOriginalFunc(orig)
	}
	return 1, nil
}

func (m *mockSubmissionStorage) CreateReply(reply domain.Reply) (domain.PostNum, error) {
	m.mu.Lock()
	m.repliesCalled++
	m.lastReply = reply
	m.mu.Unlock()

	if m.createReplyFunc != nil {
		return m.createReplyFunc(reply)
	}
	return 2, nil
}

type mockEnforcer struct {
	enforceFunc func(board domain.BoardId) error

	mu     sync.Mutex
	called int
	boards []domain.BoardId
}

func (m *mockEnforcer) EnforcePostCap(board domain.BoardId) error {
	m.mu.Lock()
	m.called++
	m.boards = append(m.boards, board)
	m.mu.Unlock()

	if m.enforceFunc != nil {
		return m.enforceFunc(board)
	}
	return nil
}

// --- Helpers ---

const testBoard = domain.BoardId(1)

func newTestSubmission(t *testing.T, storage *mockSubmissionStorage, enforcer *mockEnforcer) (*Submission, *ModerationCache) {
	t.Helper()
	cache, err := NewModerationCache(&mockModerationStorage{})
	require.NoError(t, err)
	return NewSubmission(storage, cache, enforcer, time.Minute, 30*time.Second), cache
}

func originalData(ip domain.Ip) domain.OriginalCreationData {
	return domain.OriginalCreationData{
		Board: testBoard,
		Ip:    ip,
		Body:  "first post",
		Title: "a thread",
	}
}

func replyData(ip domain.Ip, orig domain.PostNum) domain.ReplyCreationData {
	return domain.ReplyCreationData{
		Board:   testBoard,
		Ip:      ip,
		Body:    "a reply",
		OrigNum: orig,
	}
}

// --- Tests ---

func TestSubmitOriginal_Success(t *testing.T) {
	storage := &mockSubmissionStorage{}
	enforcer := &mockEnforcer{}
	s, _ := newTestSubmission(t, storage, enforcer)

	result, err := s.SubmitOriginal(originalData("10.0.0.1"))
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionAccepted, result.Status)
	assert.Equal(t, domain.PostNum(1), result.PostNum)

	// The store receives the placeholder number; assignment is its job.
	assert.Equal(t, domain.PostNum(0), storage.lastOriginal.Num)
	assert.Equal(t, testBoard, storage.lastOriginal.Board)
	assert.Equal(t, storage.lastOriginal.CreatedAt, storage.lastOriginal.BumpTime)

	// A successful thread submission triggers capacity enforcement.
	assert.Equal(t, 1, enforcer.called)
	assert.Equal(t, []domain.BoardId{testBoard}, enforcer.boards)
}

func TestSubmitOriginal_Banned(t *testing.T) {
	storage := &mockSubmissionStorage{}
	enforcer := &mockEnforcer{}
	s, cache := newTestSubmission(t, storage, enforcer)
	require.NoError(t, cache.BanIp("10.0.0.1", time.Hour))

	result, err := s.SubmitOriginal(originalData("10.0.0.1"))
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionBanned, result.Status)

	// Nothing was mutated.
	assert.Equal(t, 0, storage.originalsCalled)
	assert.Equal(t, 0, enforcer.called)
	assert.False(t, cache.WithinCooldown(CooldownOriginal, "10.0.0.1", time.Now().UTC()))
}

func TestSubmitOriginal_CooldownGating(t *testing.T) {
	storage := &mockSubmissionStorage{}
	enforcer := &mockEnforcer{}
	s, _ := newTestSubmission(t, storage, enforcer)

	base := time.Now().UTC()
	clock := base
	s.now = func() time.Time { return clock }

	// First submission succeeds.
	result, err := s.SubmitOriginal(originalData("10.0.0.1"))
	require.NoError(t, err)
	require.Equal(t, domain.SubmissionAccepted, result.Status)

	// An immediate second one is refused without touching the store.
	result, err = s.SubmitOriginal(originalData("10.0.0.1"))
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionCooldown, result.Status)
	assert.Equal(t, 1, storage.originalsCalled)

	// Another IP is not gated.
	result, err = s.SubmitOriginal(originalData("10.0.0.2"))
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionAccepted, result.Status)

	// Once the window elapses the same IP may post again.
	clock = base.Add(61 * time.Second)
	result, err = s.SubmitOriginal(originalData("10.0.0.1"))
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionAccepted, result.Status)
	assert.Equal(t, 3, storage.originalsCalled)
}

func TestSubmitOriginal_Empty(t *testing.T) {
	storage := &mockSubmissionStorage{}
	enforcer := &mockEnforcer{}
	s, _ := newTestSubmission(t, storage, enforcer)

	tests := []struct {
		name     string
		title    string
		body     string
		accepted bool
	}{
		{"both empty", "", "", false},
		{"whitespace only", "  \t ", " \n ", false},
		{"title only", "a thread", "", true},
		{"body only", "", "first post", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := domain.OriginalCreationData{Board: testBoard, Ip: "10.0.1.1", Title: tt.title, Body: tt.body}
			result, err := s.SubmitOriginal(data)
			require.NoError(t, err)
			if tt.accepted {
				assert.Equal(t, domain.SubmissionAccepted, result.Status)
			} else {
				assert.Equal(t, domain.SubmissionEmpty, result.Status)
			}
			// Clear the cooldown so accepted cases don't gate later ones.
			s.moderation.SetCooldown(CooldownOriginal, data.Ip, time.Time{})
		})
	}
}

func TestSubmitOriginal_StoreFailure(t *testing.T) {
	storage := &mockSubmissionStorage{
		createOriginalFunc: func(domain.Original) (domain.PostNum, error) { return 0, assert.AnError },
	}
	enforcer := &mockEnforcer{}
	s, cache := newTestSubmission(t, storage, enforcer)

	_, err := s.SubmitOriginal(originalData("10.0.0.1"))
	require.Error(t, err)

	// A failed write must not start a cooldown or trigger eviction.
	assert.False(t, cache.WithinCooldown(CooldownOriginal, "10.0.0.1", time.Now().UTC()))
	assert.Equal(t, 0, enforcer.called)

	// The same IP may retry at once.
	storage.createOriginalFunc = nil
	result, err := s.SubmitOriginal(originalData("10.0.0.1"))
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionAccepted, result.Status)
}

func TestSubmitOriginal_EvictionFailureDoesNotFailSubmission(t *testing.T) {
	storage := &mockSubmissionStorage{}
	enforcer := &mockEnforcer{
		enforceFunc: func(domain.BoardId) error { return assert.AnError },
	}
	s, _ := newTestSubmission(t, storage, enforcer)

	result, err := s.SubmitOriginal(originalData("10.0.0.1"))
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionAccepted, result.Status)
}

func TestSubmitReply_Success(t *testing.T) {
	storage := &mockSubmissionStorage{}
	enforcer := &mockEnforcer{}
	s, cache := newTestSubmission(t, storage, enforcer)

	result, err := s.SubmitReply(replyData("10.0.0.1", 1))
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionAccepted, result.Status)
	assert.Equal(t, domain.PostNum(2), result.PostNum)
	assert.Equal(t, domain.PostNum(1), storage.lastReply.OrigNum)

	// Replies never trigger capacity enforcement.
	assert.Equal(t, 0, enforcer.called)

	// The reply cooldown map was armed, not the original one.
	now := time.Now().UTC()
	assert.True(t, cache.WithinCooldown(CooldownReply, "10.0.0.1", now))
	assert.False(t, cache.WithinCooldown(CooldownOriginal, "10.0.0.1", now))
}

func TestSubmitReply_Empty(t *testing.T) {
	storage := &mockSubmissionStorage{}
	enforcer := &mockEnforcer{}
	s, _ := newTestSubmission(t, storage, enforcer)

	// No body and no file: refused.
	data := replyData("10.0.0.1", 1)
	data.Body = "   "
	result, err := s.SubmitReply(data)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionEmpty, result.Status)
	assert.Equal(t, 0, storage.repliesCalled)

	// A file-only reply is valid.
	data.FileId = "f-123"
	data.FileName = "cat.png"
	result, err = s.SubmitReply(data)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionAccepted, result.Status)
}

func TestSubmitReply_StoreFailure(t *testing.T) {
	storage := &mockSubmissionStorage{
		createReplyFunc: func(domain.Reply) (domain.PostNum, error) { return 0, assert.AnError },
	}
	enforcer := &mockEnforcer{}
	s, cache := newTestSubmission(t, storage, enforcer)

	_, err := s.SubmitReply(replyData("10.0.0.1", 1))
	require.Error(t, err)
	assert.False(t, cache.WithinCooldown(CooldownReply, "10.0.0.1", time.Now().UTC()))
}

func TestSubmitReply_Banned(t *testing.T) {
	storage := &mockSubmissionStorage{}
	enforcer := &mockEnforcer{}
	s, cache := newTestSubmission(t, storage, enforcer)
	require.NoError(t, cache.BanIp("10.0.0.1", time.Hour))

	result, err := s.SubmitReply(replyData("10.0.0.1", 1))
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionBanned, result.Status)
	assert.Equal(t, 0, storage.repliesCalled)
}
