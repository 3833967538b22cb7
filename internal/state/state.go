package state

// State is an FSM state name. Its meaning belongs to the calling bot.
type State string

// Meta is the opaque auxiliary data stored next to a chat's state.
type Meta map[string]any

const (
	attrChatID = "chat_id"
	attrState  = "state"
	attrMeta   = "meta"

	metaScoresKey = "scores"
)

// Record is the persisted session entry for a single chat.
type Record struct {
	ChatID int64 `dynamodbav:"chat_id" json:"chat_id"`
	State  State `dynamodbav:"state" json:"state"`
	Meta   Meta  `dynamodbav:"meta" json:"meta"`
}

// newMeta returns the metadata written on every state change: empty scores.
func newMeta() Meta {
	return Meta{metaScoresKey: map[string]any{}}
}
