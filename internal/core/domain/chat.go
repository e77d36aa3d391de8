package domain

import (
	"fmt"
	"time"
)

// ChatLogPrefix is the object storage prefix chat records are written under.
const ChatLogPrefix = "chat_logs/"

// chatLogTimeLayout renders timestamps as YYYY-MM-DD_HH-MM-SS.
const chatLogTimeLayout = "2006-01-02_15-04-05"

// ChatRecord is the audit entry persisted after each answered question.
type ChatRecord struct {
	Username  string           `json:"username"`
	Timestamp string           `json:"timestamp"`
	Question  string           `json:"question"`
	Response  StructuredAnswer `json:"response"`
}

// NewChatRecord stamps a record with the UTC time t.
func NewChatRecord(username, question string, response StructuredAnswer, t time.Time) ChatRecord {
	return ChatRecord{
		Username:  username,
		Timestamp: FormatChatTimestamp(t),
		Question:  question,
		Response:  response,
	}
}

// FormatChatTimestamp renders t in UTC using the chat log layout.
func FormatChatTimestamp(t time.Time) string {
	return t.UTC().Format(chatLogTimeLayout)
}

// ParseChatTimestamp reads a timestamp written by FormatChatTimestamp.
func ParseChatTimestamp(s string) (time.Time, error) {
	return time.Parse(chatLogTimeLayout, s)
}

// ChatLogKey returns the object name a record for username at t is stored under.
func ChatLogKey(username string, t time.Time) string {
	return fmt.Sprintf("%s%s_%s.json", ChatLogPrefix, username, FormatChatTimestamp(t))
}
