package gmail

import (
	"net/mail"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/mailstash/mailstash/internal/domain"
)

// ParseMessages normalizes raw Gmail messages into storage-ready records.
// Pure and total: malformed or missing fields degrade to defaults rather than
// erroring, so one bad message can't poison a batch.
func ParseMessages(msgs []*gmailapi.Message) []domain.Email {
	emails := make([]domain.Email, 0, len(msgs))
	for _, m := range msgs {
		emails = append(emails, parseMessage(m))
	}
	return emails
}

func parseMessage(m *gmailapi.Message) domain.Email {
	var headers []*gmailapi.MessagePartHeader
	if m.Payload != nil {
		headers = m.Payload.Headers
	}

	name, addr := parseSender(findHeader(headers, "From"))

	size := m.SizeEstimate
	if size == 0 {
		size = domain.UnknownSize
	}

	labels := m.LabelIds
	if len(labels) == 0 {
		labels = []string{domain.LabelInbox}
	}

	return domain.Email{
		GmailID:      m.Id,
		Subject:      findHeader(headers, "Subject"),
		SenderName:   name,
		SenderEmail:  addr,
		ReceivedAt:   parseDate(findHeader(headers, "Date")),
		ContentType:  findHeader(headers, "Content-Type"),
		SizeEstimate: size,
		Importance:   domain.DefaultImportance,
		Labels:       labels,
	}
}

// findHeader performs a case-insensitive lookup for a header value. The
// header list is small (we request four headers), so a linear scan is fine.
func findHeader(headers []*gmailapi.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// parseSender splits an RFC 5322 From header into display name and address.
// Falls back to treating the entire string as a bare address if parsing fails.
func parseSender(s string) (name, addr string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}

	parsed, err := mail.ParseAddress(s)
	if err != nil {
		return "", s
	}
	return parsed.Name, parsed.Address
}

// dateFormats are tried in order against the Date header.
var dateFormats = []string{
	time.RFC1123Z,                           // "Mon, 02 Jan 2006 15:04:05 -0700"
	time.RFC1123,                            // "Mon, 02 Jan 2006 15:04:05 MST"
	"Mon, 2 Jan 2006 15:04:05 -0700",        // single-digit day
	"Mon, 2 Jan 2006 15:04:05 MST",          // single-digit day with named zone
	"2 Jan 2006 15:04:05 -0700",             // no weekday
	"Mon, 02 Jan 2006 15:04:05 -0700 (MST)", // with parenthesized zone
	time.RFC822Z,                            // "02 Jan 06 15:04 -0700"
	time.RFC822,                             // "02 Jan 06 15:04 MST"
	time.RFC3339,                            // ISO 8601
}

// naiveDateFormats carry no zone information. Storage requires a
// timezone-aware timestamp, so these are interpreted in the system's local
// zone rather than left ambiguous.
var naiveDateFormats = []string{
	"Mon, 2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04:05",
	"2006-01-02 15:04:05",
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	for _, format := range naiveDateFormats {
		if t, err := time.ParseInLocation(format, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
