package model

import "time"

// TimestampLayout is the ISO-8601 form used as the store key. It is fixed
// width, so lexical order equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Message is one stored guestbook record.
type Message struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Entry pairs a Message with the timestamp it is keyed by.
type Entry struct {
	Timestamp string
	Message
}

// Valid reports whether both fields are present.
func (m Message) Valid() bool {
	return m.Username != "" && m.Message != ""
}

// FormatTimestamp renders t as a store key.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp is the inverse of FormatTimestamp, in local time.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}
