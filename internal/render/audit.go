package render

import (
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/go-pdf/fpdf"
)

const (
	auditMargin      = 50.0
	auditTop         = 60.0
	auditLineHeight  = 16.0
	auditBlockLine   = 14.0
	auditBlockLines  = 7
	auditBottomLimit = 100.0
	auditFooterInset = 40.0

	auditTitle  = "Certificate of Completion"
	auditFooter = "This certificate was generated electronically and forms part of the signed record of the document above."
	auditRule   = "--------------------------------------------------------------------------------------------"
)

var auditPage = fpdf.SizeType{Wd: 612, Ht: 792}

// AuditRecipient is one signing party as listed on the certificate.
type AuditRecipient struct {
	Name      string
	Email     string
	Role      string
	Status    string
	SignedAt  *time.Time
	IPAddress string
}

// Certificate is the content of the audit page appended to a signed document.
type Certificate struct {
	DocumentName string
	CompletedAt  time.Time
	Tally        string
	Recipients   []AuditRecipient
}

// AuditLine is one positioned line of the audit page.
type AuditLine struct {
	Text string
	Y    float64
	Size float64
	Bold bool
}

// Composer lays out and draws the audit page.
type Composer struct {
	fonts  Fonts
	logger *slog.Logger
}

// NewComposer creates a Composer.
func NewComposer(fonts Fonts, logger *slog.Logger) *Composer {
	return &Composer{fonts: fonts, logger: logger}
}

// Layout positions the certificate lines top to bottom (y measured from the
// page top) and reports how many recipients did not fit. Recipient blocks
// stop once the next block would cross the bottom limit; the footer is
// always present.
func (c *Composer) Layout(cert Certificate) ([]AuditLine, int) {
	height := auditPage.Ht
	y := auditTop

	lines := []AuditLine{{Text: auditTitle, Y: y, Size: 20, Bold: true}}
	y += 28

	add := func(text string) {
		lines = append(lines, AuditLine{Text: text, Y: y, Size: 11})
		y += auditLineHeight
	}

	add("Document: " + cert.DocumentName)
	add("Status: Signed")
	add("Completed: " + formatTime(cert.CompletedAt))
	add("Fields: " + cert.Tally)
	add(auditRule)

	lines = append(lines, AuditLine{Text: "Recipients", Y: y, Size: 13, Bold: true})
	y += auditLineHeight + 4

	limit := height - auditBottomLimit
	block := auditBlockLine * auditBlockLines

	shown := 0
	for _, r := range cert.Recipients {
		if y+block > limit {
			break
		}

		by := y
		line := func(text string) {
			lines = append(lines, AuditLine{Text: text, Y: by, Size: 10})
			by += auditBlockLine
		}

		lines = append(lines, AuditLine{Text: r.Name, Y: by, Size: 11, Bold: true})
		by += auditBlockLine
		line("Email: " + r.Email)
		line("Role: " + r.Role)
		line("Status: " + r.Status)
		if r.SignedAt != nil {
			line("Signed at: " + formatTime(*r.SignedAt))
		}
		if r.IPAddress != "" {
			line("IP address: " + r.IPAddress)
		}
		line(auditRule)

		y += block
		shown++
	}

	omitted := len(cert.Recipients) - shown
	if omitted > 0 {
		lines = append(lines, AuditLine{
			Text: fmt.Sprintf("%d additional recipient(s) not listed", omitted),
			Y:    y,
			Size: 10,
		})
	}

	lines = append(lines, AuditLine{Text: auditFooter, Y: height - auditFooterInset, Size: 8})
	return lines, omitted
}

// Compose appends the audit page to pdf.
func (c *Composer) Compose(pdf *fpdf.Fpdf, cert Certificate, translate func(string) string) error {
	lines, omitted := c.Layout(cert)
	if omitted > 0 {
		c.logger.Warn("audit page truncated recipients",
			"document", cert.DocumentName,
			"listed", len(cert.Recipients)-omitted,
			"omitted", omitted,
		)
	}

	pdf.AddPageFormat("P", auditPage)
	pdf.SetTextColor(0, 0, 0)

	for _, l := range lines {
		font := c.fonts.Regular
		if l.Bold {
			font = c.fonts.Bold
		}
		pdf.SetFont(font.Family, font.Style, l.Size)
		pdf.Text(auditMargin, l.Y, translate(l.Text))
	}

	if pdf.Err() {
		return fmt.Errorf("compose audit page: %w", pdf.Error())
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("January 2, 2006 15:04:05 MST")
}
