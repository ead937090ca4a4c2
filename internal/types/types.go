package types

import "time"

// Speaker identifies who authored a conversation entry.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerAI   Speaker = "ai"
)

// ConversationEntry is one immutable line of a user's conversation log.
// Entries are ordered by CreatedAt within a user.
type ConversationEntry struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(255);uniqueIndex:idx_conversations_user_created,priority:1"`
	Speaker   Speaker   `json:"speaker" gorm:"type:varchar(16);uniqueIndex:idx_conversations_user_created,priority:3"`
	Entry     string    `json:"entry" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"uniqueIndex:idx_conversations_user_created,priority:2"`
}

// TableName returns the database table name for conversation entries
func (ConversationEntry) TableName() string {
	return "conversations"
}

// Match is one retrieved passage with its source URL and similarity score.
// Matches are produced fresh per retrieval call and never persisted.
type Match struct {
	SourceText string  `json:"source_text"`
	SourceURL  string  `json:"source_url"`
	Score      float32 `json:"score"`
}

// InteractionStatus tracks the lifecycle of one chat interaction.
type InteractionStatus string

const (
	InteractionCreated     InteractionStatus = "created"
	InteractionMatching    InteractionStatus = "matching"
	InteractionSummarizing InteractionStatus = "summarizing"
	InteractionGenerating  InteractionStatus = "generating"
	InteractionStreaming   InteractionStatus = "streaming"
	InteractionCompleted   InteractionStatus = "completed"
	InteractionFailed      InteractionStatus = "failed"
)

// EventType identifies a chat pipeline stage.
type EventType string

const (
	CONVERSATION_LOAD EventType = "conversation_load"
	QUERY_REWRITE     EventType = "query_rewrite"
	VECTOR_SEARCH     EventType = "vector_search"
	SUMMARIZE         EventType = "summarize"
	CHAT_STREAM       EventType = "chat_stream"
)

// Interaction carries the mutable state of one request through the chat
// pipeline. It is scoped to a single interaction and never shared.
type Interaction struct {
	InteractionID string
	UserID        string
	RawPrompt     string
	History       []string
	RefinedQuery  string
	Matches       []Match
	Docs          []string
	SourceURLs    []string
	Corpus        string
	Summary       string
	Answer        string
	Status        InteractionStatus
}
