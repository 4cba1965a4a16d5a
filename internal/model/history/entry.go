package history

// Entry records one exchange between a user and the bot.
type Entry struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
	User      string `json:"user"`
	Bot       string `json:"bot"`
}
