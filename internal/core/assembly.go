package core

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/valter-silva-au/courrier/pkg/models"
)

// DateLayout is the fr-FR display format used in headers and date fields.
const DateLayout = "02/01/2006"

// BuildPrompt assembles the text sent to the generation service. The
// additional info is dumped as a compact JSON object and forwarded as is.
func BuildPrompt(profile models.UserProfile, recipient models.Recipient, letterType models.LetterType, info models.AdditionalInfo) string {
	sender := strings.Join([]string{
		strings.TrimSpace(profile.FirstName + " " + profile.LastName),
		profile.Address,
		strings.TrimSpace(profile.PostalCode + " " + profile.City),
		profile.Email,
		profile.Phone,
	}, ", ")

	to := nonEmpty(
		recipient.Company,
		recipient.Service,
		recipientName(recipient),
		recipient.Address,
		strings.TrimSpace(recipient.PostalCode+" "+recipient.City),
		recipient.Email,
	)

	parts := []string{
		"Profil utilisateur : " + sender,
		"Destinataire : " + strings.Join(to, ", "),
		"Type de courrier : " + string(letterType),
		"Informations supplémentaires : " + dumpInfo(info),
	}
	return strings.Join(parts, "\n")
}

// FormatHeader renders the sender block, the recipient block and the dateline
// that precede the generated body. Blank entries are dropped rather than
// leaving empty lines.
func FormatHeader(profile models.UserProfile, recipient models.Recipient, date time.Time) string {
	senderLines := nonEmpty(
		strings.TrimSpace(profile.FirstName+" "+profile.LastName),
		profile.Address,
		strings.TrimSpace(profile.PostalCode+" "+profile.City),
		profile.Email,
		profile.Phone,
	)
	recipientLines := nonEmpty(
		recipient.Company,
		recipient.Service,
		recipientName(recipient),
		recipient.Address,
		strings.TrimSpace(recipient.PostalCode+" "+recipient.City),
		recipient.Email,
	)
	dateline := profile.City + ", le " + date.Format(DateLayout)

	var b strings.Builder
	b.WriteString(strings.Join(senderLines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(strings.Join(recipientLines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(dateline)
	b.WriteString("\n\n")
	return b.String()
}

// ComposeLetter prefixes body with the formatted header.
func ComposeLetter(profile models.UserProfile, recipient models.Recipient, date time.Time, body string) string {
	return FormatHeader(profile, recipient, date) + body
}

// LetterTitle is the history title of a letter: the type title, followed by
// the recipient's most specific name when one is known.
func LetterTitle(def models.LetterTypeDefinition, recipient models.Recipient) string {
	for _, name := range []string{recipient.Company, recipientName(recipient), recipient.Service} {
		if strings.TrimSpace(name) != "" {
			return def.Title + " - " + strings.TrimSpace(name)
		}
	}
	return def.Title
}

// recipientName is "first last" only when both parts are present.
func recipientName(r models.Recipient) string {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return ""
	}
	return strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func dumpInfo(info models.AdditionalInfo) string {
	if info == nil {
		info = models.AdditionalInfo{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// A map[string]string always encodes.
	_ = enc.Encode(info)
	return strings.TrimRight(buf.String(), "\n")
}
