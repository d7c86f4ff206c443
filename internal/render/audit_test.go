package render

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func texts(lines []AuditLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestAuditLayoutContent(t *testing.T) {
	signed := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	cert := Certificate{
		DocumentName: "Lease Agreement",
		CompletedAt:  signed,
		Tally:        "2 signatures, 1 date",
		Recipients: []AuditRecipient{
			{Name: "Alice Example", Email: "alice@example.com", Role: "signer", Status: "signed", SignedAt: &signed, IPAddress: "10.0.0.1"},
			{Name: "Bob Example", Email: "bob@example.com", Role: "viewer", Status: "pending"},
		},
	}

	lines, omitted := NewComposer(DefaultFonts(), slog.Default()).Layout(cert)
	got := strings.Join(texts(lines), "\n")

	assert.Equal(t, 0, omitted)
	assert.Equal(t, "Certificate of Completion", lines[0].Text)
	assert.True(t, lines[0].Bold)
	assert.Contains(t, got, "Document: Lease Agreement")
	assert.Contains(t, got, "Status: Signed")
	assert.Contains(t, got, "Completed: March 4, 2026 10:30:00 UTC")
	assert.Contains(t, got, "Fields: 2 signatures, 1 date")
	assert.Contains(t, got, "Alice Example")
	assert.Contains(t, got, "Email: alice@example.com")
	assert.Contains(t, got, "IP address: 10.0.0.1")
	assert.Contains(t, got, "Signed at: March 4, 2026 10:30:00 UTC")
	assert.Contains(t, got, "Bob Example")
	assert.Contains(t, got, "Status: pending")
	assert.NotContains(t, got, "not listed")
	assert.Equal(t, 2, strings.Count(got, "Role: "))

	footer := lines[len(lines)-1]
	assert.Equal(t, auditFooter, footer.Text)
	assert.InDelta(t, auditPage.Ht-auditFooterInset, footer.Y, 0.001)
}

func TestAuditLayoutTruncates(t *testing.T) {
	var recipients []AuditRecipient
	for i := range 12 {
		recipients = append(recipients, AuditRecipient{
			Name:   fmt.Sprintf("Recipient %02d", i),
			Email:  fmt.Sprintf("r%02d@example.com", i),
			Status: "signed",
		})
	}

	lines, omitted := NewComposer(DefaultFonts(), slog.Default()).Layout(Certificate{
		DocumentName: "Big",
		Recipients:   recipients,
	})

	assert.Greater(t, omitted, 0)
	assert.Less(t, omitted, len(recipients))

	listed := 0
	for _, l := range lines {
		if strings.HasPrefix(l.Text, "Recipient ") {
			listed++
		}
		if l.Text != auditFooter {
			assert.LessOrEqual(t, l.Y, auditPage.Ht-auditBottomLimit, l.Text)
		}
	}
	assert.Equal(t, len(recipients), listed+omitted)

	got := strings.Join(texts(lines), "\n")
	assert.Contains(t, got, fmt.Sprintf("%d additional recipient(s) not listed", omitted))
	assert.Equal(t, auditFooter, lines[len(lines)-1].Text)
}
