package domain

type (
	BoardId = int64
	PostNum = int64
	Ip      = string
)
