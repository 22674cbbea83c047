package domain

// Board is read-mostly inside the core: administration creates and edits
// boards, the submission path only consumes PostCap/BumpLimit and claims
// numbers from NextPostNum.
type Board struct {
	Id          BoardId
	Url         string
	Title       string
	PostCap     int
	BumpLimit   int
	NextPostNum PostNum
}
