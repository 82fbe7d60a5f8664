package gmail

import (
	"testing"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/mailstash/mailstash/internal/domain"
)

func header(name, value string) *gmailapi.MessagePartHeader {
	return &gmailapi.MessagePartHeader{Name: name, Value: value}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  *gmailapi.Message
		want domain.Email
	}{
		{
			name: "full message",
			msg: &gmailapi.Message{
				Id:           "1",
				SizeEstimate: 777,
				LabelIds:     []string{"INBOX", "UNREAD"},
				Payload: &gmailapi.MessagePart{
					Headers: []*gmailapi.MessagePartHeader{
						header("Subject", "Hi"),
						header("From", `"A" <a@x.com>`),
						header("Date", "Sun, 01 Feb 2026 03:33:03 +0000"),
						header("Content-Type", "text/plain"),
					},
				},
			},
			want: domain.Email{
				GmailID:      "1",
				Subject:      "Hi",
				SenderName:   "A",
				SenderEmail:  "a@x.com",
				ReceivedAt:   time.Date(2026, 2, 1, 3, 33, 3, 0, time.UTC),
				ContentType:  "text/plain",
				SizeEstimate: 777,
				Importance:   domain.DefaultImportance,
				Labels:       []string{"INBOX", "UNREAD"},
			},
		},
		{
			name: "missing everything falls back to defaults",
			msg:  &gmailapi.Message{Id: "2"},
			want: domain.Email{
				GmailID:      "2",
				SizeEstimate: domain.UnknownSize,
				Importance:   domain.DefaultImportance,
				Labels:       []string{domain.LabelInbox},
			},
		},
		{
			name: "bare sender address",
			msg: &gmailapi.Message{
				Id: "3",
				Payload: &gmailapi.MessagePart{
					Headers: []*gmailapi.MessagePartHeader{
						header("From", "noreply@example.com"),
					},
				},
			},
			want: domain.Email{
				GmailID:      "3",
				SenderEmail:  "noreply@example.com",
				SizeEstimate: domain.UnknownSize,
				Importance:   domain.DefaultImportance,
				Labels:       []string{domain.LabelInbox},
			},
		},
		{
			name: "lowercase header names",
			msg: &gmailapi.Message{
				Id: "4",
				Payload: &gmailapi.MessagePart{
					Headers: []*gmailapi.MessagePartHeader{
						header("subject", "lower"),
						header("from", "b@x.com"),
					},
				},
			},
			want: domain.Email{
				GmailID:      "4",
				Subject:      "lower",
				SenderEmail:  "b@x.com",
				SizeEstimate: domain.UnknownSize,
				Importance:   domain.DefaultImportance,
				Labels:       []string{domain.LabelInbox},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseMessage(tt.msg)
			if got.GmailID != tt.want.GmailID {
				t.Errorf("GmailID = %q, want %q", got.GmailID, tt.want.GmailID)
			}
			if got.Subject != tt.want.Subject {
				t.Errorf("Subject = %q, want %q", got.Subject, tt.want.Subject)
			}
			if got.SenderName != tt.want.SenderName {
				t.Errorf("SenderName = %q, want %q", got.SenderName, tt.want.SenderName)
			}
			if got.SenderEmail != tt.want.SenderEmail {
				t.Errorf("SenderEmail = %q, want %q", got.SenderEmail, tt.want.SenderEmail)
			}
			if !got.ReceivedAt.Equal(tt.want.ReceivedAt) {
				t.Errorf("ReceivedAt = %v, want %v", got.ReceivedAt, tt.want.ReceivedAt)
			}
			if got.ContentType != tt.want.ContentType {
				t.Errorf("ContentType = %q, want %q", got.ContentType, tt.want.ContentType)
			}
			if got.SizeEstimate != tt.want.SizeEstimate {
				t.Errorf("SizeEstimate = %d, want %d", got.SizeEstimate, tt.want.SizeEstimate)
			}
			if got.Importance != tt.want.Importance {
				t.Errorf("Importance = %d, want %d", got.Importance, tt.want.Importance)
			}
			if len(got.Labels) != len(tt.want.Labels) {
				t.Fatalf("Labels = %v, want %v", got.Labels, tt.want.Labels)
			}
			for i := range got.Labels {
				if got.Labels[i] != tt.want.Labels[i] {
					t.Errorf("Labels = %v, want %v", got.Labels, tt.want.Labels)
					break
				}
			}
		})
	}
}

func TestParseMessagesIsTotal(t *testing.T) {
	msgs := []*gmailapi.Message{
		{Id: "a"},
		{Id: "b", Payload: &gmailapi.MessagePart{Headers: []*gmailapi.MessagePartHeader{
			header("Date", "not a date at all"),
		}}},
		{Id: "c"},
	}

	got := ParseMessages(msgs)
	if len(got) != len(msgs) {
		t.Fatalf("ParseMessages returned %d records, want %d", len(got), len(msgs))
	}
	if !got[1].ReceivedAt.IsZero() {
		t.Errorf("unparseable date should produce zero time, got %v", got[1].ReceivedAt)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "rfc1123z",
			input: "Sun, 01 Feb 2026 03:33:03 +0000",
			want:  time.Date(2026, 2, 1, 3, 33, 3, 0, time.UTC),
		},
		{
			name:  "single digit day",
			input: "Mon, 2 Mar 2026 10:00:00 -0500",
			want:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.FixedZone("", -5*3600)),
		},
		{
			name:  "no weekday",
			input: "15 Apr 2026 09:30:00 +0200",
			want:  time.Date(2026, 4, 15, 9, 30, 0, 0, time.FixedZone("", 2*3600)),
		},
		{
			name:  "naive date uses local zone",
			input: "2026-05-01 12:00:00",
			want:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.Local),
		},
		{
			name:  "empty",
			input: "",
			want:  time.Time{},
		},
		{
			name:  "garbage",
			input: "yesterday-ish",
			want:  time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDate(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSender(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantAddr string
	}{
		{`"Alice Smith" <alice@example.com>`, "Alice Smith", "alice@example.com"},
		{`Bob <bob@example.com>`, "Bob", "bob@example.com"},
		{`carol@example.com`, "", "carol@example.com"},
		{`not an address <<<`, "", "not an address <<<"},
		{``, "", ""},
	}

	for _, tt := range tests {
		name, addr := parseSender(tt.input)
		if name != tt.wantName || addr != tt.wantAddr {
			t.Errorf("parseSender(%q) = (%q, %q), want (%q, %q)",
				tt.input, name, addr, tt.wantName, tt.wantAddr)
		}
	}
}
