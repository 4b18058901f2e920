package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the library stream
const (
	EventUserBookRegistered = "user_book_registered"
	EventUserBookUpdated    = "user_book_updated"
	EventUserBookDeleted    = "user_book_deleted"
	EventUserBookLiked      = "user_book_liked"
	EventUserBookUnliked    = "user_book_unliked"
	EventProfileUpdated     = "profile_updated"
)

// Stream names
const (
	StreamLibrary = "stream:library"
)

// Consumer group name for stats workers
const (
	ConsumerGroupStats = "stats_workers"
)

// LibraryEvent is published after a library or profile change commits. The
// stats worker uses it to know which books need their stats recomputed.
type LibraryEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	ISBN       string `json:"isbn,omitempty"`
	UserID     string `json:"userId,omitempty"`
	UserBookID string `json:"userBookId,omitempty"`
}

// NewUserBookEvent creates an event about one library entry.
func NewUserBookEvent(eventType, isbn, userID, userBookID string) LibraryEvent {
	return LibraryEvent{
		Type:       eventType,
		Timestamp:  time.Now().Unix(),
		ISBN:       isbn,
		UserID:     userID,
		UserBookID: userBookID,
	}
}

// NewProfileUpdatedEvent creates an event for a profile change that can
// affect the demographics or visibility of every book in the user's library.
func NewProfileUpdatedEvent(userID string) LibraryEvent {
	return LibraryEvent{
		Type:      EventProfileUpdated,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e LibraryEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseLibraryEvent parses a LibraryEvent from Redis stream message values.
func ParseLibraryEvent(values map[string]interface{}) (LibraryEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return LibraryEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event LibraryEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return LibraryEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
