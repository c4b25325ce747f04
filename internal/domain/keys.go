package domain

type CtxKey string

const (
	KeySessionID CtxKey = "SessionID"
	KeyUserEmail CtxKey = "Email"
)
