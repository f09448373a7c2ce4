package domain

// SubjectType differentiates citizen vs official tokens.
type SubjectType string

const (
	SubjectTypeUser     SubjectType = "USER"
	SubjectTypeOfficial SubjectType = "OFFICIAL"
)
