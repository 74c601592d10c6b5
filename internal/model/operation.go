package model

// HotOperation is one recorded edit event against a section. Rows are
// immutable once written and leave the table only through the TTL purge.
// Version is the section's version counter after the edit.
type HotOperation struct {
	ID            string `json:"id"`
	SectionID     string `json:"section_id"`
	OperationType string `json:"operation_type"`
	Payload       string `json:"payload"`
	UserID        string `json:"user_id"`
	Version       int    `json:"version"`
	Ctime         int64  `json:"ctime"`
}
