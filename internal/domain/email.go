package domain

import "time"

// DefaultImportance is the baseline importance assigned to every ingested
// email. Scoring from content is a future feature; until then the value is
// fixed.
const DefaultImportance = 1

// UnknownSize marks an email whose size the provider did not report.
const UnknownSize = -1

// Email is the normalized, storage-ready form of a Gmail message's metadata.
// GmailID is the provider's opaque message identifier and the sole idempotency
// key: re-ingesting the same message must never create a second record.
type Email struct {
	GmailID      string
	Subject      string
	SenderName   string
	SenderEmail  string
	ReceivedAt   time.Time
	ContentType  string
	SizeEstimate int64
	Importance   int
	Labels       []string
}

func (e *Email) HasLabel(name string) bool {
	for _, l := range e.Labels {
		if l == name {
			return true
		}
	}
	return false
}
