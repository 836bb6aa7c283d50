package core

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/valter-silva-au/courrier/pkg/models"
)

// ExportFormat selects how a letter is written out.
type ExportFormat string

const (
	ExportText ExportFormat = "txt"
	ExportHTML ExportFormat = "html"
)

// MailtoSubject is the subject used for mailto links.
const MailtoSubject = "Courrier"

// RenderLetter returns the letter content in the given format. HTML output
// wraps the escaped content in a <pre> block so line breaks survive printing.
func RenderLetter(letter models.Letter, format ExportFormat) (string, error) {
	switch format {
	case ExportText:
		return letter.Content, nil
	case ExportHTML:
		var b strings.Builder
		b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
		b.WriteString(html.EscapeString(letter.Title))
		b.WriteString("</title>\n</head>\n<body>\n<pre>")
		b.WriteString(html.EscapeString(letter.Content))
		b.WriteString("</pre>\n</body>\n</html>\n")
		return b.String(), nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use txt or html)", format)
	}
}

// MailtoLink builds a mailto: URI with no recipient, the fixed subject and
// the letter content as body.
func MailtoLink(letter models.Letter) string {
	return "mailto:?subject=" + mailtoEscape(MailtoSubject) + "&body=" + mailtoEscape(letter.Content)
}

// mailtoEscape percent-encodes s for a mailto query. Spaces become %20
// because mail clients do not decode '+'.
func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
