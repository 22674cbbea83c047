package service

import (
	"strings"
	"time"

	"github.com/jgbyrne/plainchant/internal/metrics"
	"github.com/jgbyrne/plainchant/shared/domain"
	"github.com/jgbyrne/plainchant/shared/logger"
)

// SubmissionStorage defines the entity-store writes the pipeline performs.
type SubmissionStorage interface {
	CreateOriginal(orig domain.Original) (domain.PostNum, error)
	CreateReply(reply domain.Reply) (domain.PostNum, error)
}

// ModerationGate is the cache surface the pipeline consults before and after
// a write.
type ModerationGate interface {
	IsBanned(ip domain.Ip, now time.Time) bool
	WithinCooldown(kind CooldownKind, ip domain.Ip, now time.Time) bool
	SetCooldown(kind CooldownKind, ip domain.Ip, until time.Time)
}

// PostCapEnforcer trims a board back to its thread capacity after a new
// thread lands.
type PostCapEnforcer interface {
	EnforcePostCap(board domain.BoardId) error
}

// Submission turns validated field data into a stored post, or rejects it
// with a typed result. The check order is a fixed contract: ban, cooldown,
// content, store write, cooldown set, eviction — cheap checks first, and no
// side effect unless the write committed.
type Submission struct {
	storage    SubmissionStorage
	moderation ModerationGate
	eviction   PostCapEnforcer

	originalCooldown time.Duration
	replyCooldown    time.Duration

	now func() time.Time
}

func NewSubmission(storage SubmissionStorage, moderation ModerationGate, eviction PostCapEnforcer,
	originalCooldown, replyCooldown time.Duration) *Submission {
	return &Submission{
		storage:          storage,
		moderation:       moderation,
		eviction:         eviction,
		originalCooldown: originalCooldown,
		replyCooldown:    replyCooldown,
		now:              time.Now,
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func (s *Submission) SubmitOriginal(data domain.OriginalCreationData) (domain.SubmissionResult, error) {
	now := s.now().UTC()

	if s.moderation.IsBanned(data.Ip, now) {
		metrics.SubmissionsRejected.WithLabelValues("banned").Inc()
		return domain.Rejected(domain.SubmissionBanned), nil
	}
	if s.moderation.WithinCooldown(CooldownOriginal, data.Ip, now) {
		metrics.SubmissionsRejected.WithLabelValues("cooldown").Inc()
		return domain.Rejected(domain.SubmissionCooldown), nil
	}
	if blank(data.Title) && blank(data.Body) {
		metrics.SubmissionsRejected.WithLabelValues("empty").Inc()
		return domain.Rejected(domain.SubmissionEmpty), nil
	}

	orig := domain.Original{
		Post: domain.Post{
			Board:     data.Board,
			Num:       0, // assigned by the store
			CreatedAt: now,
			Ip:        data.Ip,
			Poster:    data.Poster,
			Body:      data.Body,
			Feather:   data.Feather,
			FileId:    data.FileId,
			FileName:  data.FileName,
		},
		Title:    data.Title,
		BumpTime: now,
	}

	num, err := s.storage.CreateOriginal(orig)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	// Cooldown only starts once the write has committed.
	s.moderation.SetCooldown(CooldownOriginal, data.Ip, now.Add(s.originalCooldown))
	metrics.PostsCreated.WithLabelValues("original").Inc()

	// The post is already durably stored; an eviction failure is an
	// operational problem on other threads, not on this submission.
	if err := s.eviction.EnforcePostCap(data.Board); err != nil {
		logger.Log.Error("post cap enforcement failed",
			"board", data.Board, "error", err)
	}

	return domain.Accepted(num), nil
}

func (s *Submission) SubmitReply(data domain.ReplyCreationData) (domain.SubmissionResult, error) {
	now := s.now().UTC()

	if s.moderation.IsBanned(data.Ip, now) {
		metrics.SubmissionsRejected.WithLabelValues("banned").Inc()
		return domain.Rejected(domain.SubmissionBanned), nil
	}
	if s.moderation.WithinCooldown(CooldownReply, data.Ip, now) {
		metrics.SubmissionsRejected.WithLabelValues("cooldown").Inc()
		return domain.Rejected(domain.SubmissionCooldown), nil
	}
	// A file-only reply is valid.
	if blank(data.Body) && data.FileId == "" {
		metrics.SubmissionsRejected.WithLabelValues("empty").Inc()
		return domain.Rejected(domain.SubmissionEmpty), nil
	}

	reply := domain.Reply{
		Post: domain.Post{
			Board:     data.Board,
			Num:       0, // assigned by the store
			CreatedAt: now,
			Ip:        data.Ip,
			Poster:    data.Poster,
			Body:      data.Body,
			Feather:   data.Feather,
			FileId:    data.FileId,
			FileName:  data.FileName,
		},
		OrigNum: data.OrigNum,
	}

	num, err := s.storage.CreateReply(reply)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	s.moderation.SetCooldown(CooldownReply, data.Ip, now.Add(s.replyCooldown))
	metrics.PostsCreated.WithLabelValues("reply").Inc()

	return domain.Accepted(num), nil
}
