package domain

import "time"

type FeatherType int

const (
	FeatherNone FeatherType = iota
	FeatherTrip
	FeatherModerator
	FeatherAdmin
)

// Feather is a post's identity marker. Text is only meaningful for
// FeatherTrip and carries the tripcode, which is computed upstream —
// the core never hashes secrets itself.
type Feather struct {
	Type FeatherType
	Text string
}

// Post holds the columns shared by every row of the posts table.
// Poster, FileId and FileName are optional; empty string means absent.
type Post struct {
	Board     BoardId
	Num       PostNum
	CreatedAt time.Time
	Ip        Ip
	Poster    string
	Body      string
	Feather   Feather
	FileId    string
	FileName  string
}

func (p *Post) HasFile() bool {
	return p.FileId != ""
}

// Original is a thread root. Replies/ImgReplies always equal the count of
// live replies referencing it; BumpTime only advances while Replies is at
// or under the board's bump limit.
type Original struct {
	Post
	Title      string
	BumpTime   time.Time
	Replies    int
	ImgReplies int
	Pinned     bool
	Archived   bool
}

type Reply struct {
	Post
	OrigNum PostNum
}

type Thread struct {
	Original Original
	Replies  []Reply
}

// Catalog is a derived, read-only view: the board's non-archived originals
// in bump order (BumpTime descending, PostNum descending on ties).
type Catalog struct {
	Board     BoardId
	FetchedAt time.Time
	Originals []Original
}
