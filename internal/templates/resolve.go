// Package templates resolves placeholder fields in outreach message
// templates against a sequence context snapshot.
package templates

import (
	"strconv"
	"strings"

	"github.com/homelistingai/outreach/internal/models"
)

// Resolve replaces every recognized {{field}} placeholder in template with
// its value from the context. Recognized fields whose value is unset resolve
// to an empty string. Placeholders outside the recognized field table are
// left untouched in the output; they are not blanked and do not error.
//
// The recognized fields are a fixed table: lead.name, lead.email, lead.phone,
// property.address, property.price, property.bedrooms, property.bathrooms,
// property.squareFeet, property.type, property.features, agent.name,
// agent.title, agent.company, agent.phone and agent.email. Property fields
// are only substituted when the context carries a property snapshot.
func Resolve(template string, ctx models.SequenceContext) string {
	pairs := make([]string, 0, 30)

	pairs = append(pairs,
		"{{lead.name}}", ctx.Lead.Name,
		"{{lead.email}}", ctx.Lead.Email,
		"{{lead.phone}}", ctx.Lead.Phone,
	)

	if ctx.Property != nil {
		p := ctx.Property
		pairs = append(pairs,
			"{{property.address}}", p.Address,
			"{{property.price}}", formatThousands(p.Price),
			"{{property.bedrooms}}", strconv.Itoa(p.Bedrooms),
			"{{property.bathrooms}}", formatBathrooms(p.Bathrooms),
			"{{property.squareFeet}}", formatThousands(p.SquareFeet),
			"{{property.type}}", p.Type,
			"{{property.features}}", strings.Join(p.Features, ", "),
		)
	}

	pairs = append(pairs,
		"{{agent.name}}", ctx.Agent.Name,
		"{{agent.title}}", ctx.Agent.Title,
		"{{agent.company}}", ctx.Agent.Company,
		"{{agent.phone}}", ctx.Agent.Phone,
		"{{agent.email}}", ctx.Agent.Email,
	)

	return strings.NewReplacer(pairs...).Replace(template)
}

// formatThousands renders n with comma separators, e.g. 1250000 -> 1,250,000.
func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// formatBathrooms renders a bathroom count without trailing zeros
// (2 -> "2", 2.5 -> "2.5").
func formatBathrooms(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
