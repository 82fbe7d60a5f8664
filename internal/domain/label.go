package domain

// Label is a named category, many-to-many with emails. Names are the only
// identity: two emails naming the same label share one Label row.
type Label struct {
	ID   int64
	Name string
}

const (
	LabelInbox = "INBOX"
	LabelSent  = "SENT"
	LabelSpam  = "SPAM"
	LabelTrash = "TRASH"
)
