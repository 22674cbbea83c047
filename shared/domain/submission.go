package domain

// SubmissionStatus enumerates the expected outcomes of a post submission.
// Rejections are ordinary results, not errors: the web layer turns them
// into user-facing responses (403/429/400) without string matching.
type SubmissionStatus int

const (
	SubmissionAccepted SubmissionStatus = iota
	SubmissionBanned
	SubmissionCooldown
	SubmissionEmpty
)

func (s SubmissionStatus) String() string {
	switch s {
	case SubmissionAccepted:
		return "accepted"
	case SubmissionBanned:
		return "banned"
	case SubmissionCooldown:
		return "cooldown"
	case SubmissionEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// SubmissionResult is a closed tagged result; PostNum is only set when
// Status is SubmissionAccepted.
type SubmissionResult struct {
	Status  SubmissionStatus
	PostNum PostNum
}

func Accepted(num PostNum) SubmissionResult {
	return SubmissionResult{Status: SubmissionAccepted, PostNum: num}
}

func Rejected(status SubmissionStatus) SubmissionResult {
	return SubmissionResult{Status: status}
}

// OriginalCreationData carries the validated fields of a new thread
// submission. Feather arrives precomputed; FileId refers to a blob the
// file rack already holds.
type OriginalCreationData struct {
	Board    BoardId
	Ip       Ip
	Body     string
	Poster   string
	Feather  Feather
	FileId   string
	FileName string
	Title    string
}

type ReplyCreationData struct {
	Board    BoardId
	Ip       Ip
	Body     string
	Poster   string
	Feather  Feather
	FileId   string
	FileName string
	OrigNum  PostNum
}

// PostRef identifies a post without loading it; used by the bulk IP wipe.
type PostRef struct {
	Board BoardId
	Num   PostNum
}

// DeletedPost reports a removed row and the rack file it referenced, if any.
type DeletedPost struct {
	Num    PostNum
	FileId string
}

// DeletedThread reports everything a cascading thread delete removed, so the
// caller can release the associated rack files. The store itself never
// touches the file rack.
type DeletedThread struct {
	Original DeletedPost
	Replies  []DeletedPost
}
