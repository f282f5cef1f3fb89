package content

import (
	"fmt"
	"strings"

	"github.com/sensiq/coldmail/internal/vector"
)

// SystemPrompt is sent with every regular email generation.
const SystemPrompt = "You are a professional email writer. Generate only the email content exactly as requested, with no additional commentary or placeholders."

// BuildPrompt renders the generation prompt for a recipient in a country.
// Only the introduction is left to the model; the rest of the email is fixed
// copy it must reproduce.
func BuildPrompt(c *Catalog, recipient Recipient, country Country, lang string, k vector.Knowledge) string {
	benefits := make([]string, len(recipient.Benefits))
	for i, b := range recipient.Benefits {
		benefits[i] = country.Fill(b)
	}
	initiative := ""
	if len(country.Initiatives) > 0 {
		initiative = country.Initiatives[0]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a professional cold email for a %s in %s, focusing on %s.\n",
		recipient.Key, country.Key, country.Fill(recipient.Focus))
	if lang != "" && !strings.EqualFold(lang, DefaultLanguage) {
		fmt.Fprintf(&b, "Write the email in %s. Keep the links, phone numbers and emoji markers unchanged.\n", lang)
	}

	if !k.Empty() {
		b.WriteString("\nUse this background about the company and its products where it helps:\n")
		writeKnowledge(&b, "Company", k.Company)
		writeKnowledge(&b, "Solutions", k.Solutions)
		writeKnowledge(&b, "Products", k.Products)
	}

	b.WriteString("\nThe email should follow this EXACT template (only replace the introduction paragraph):\n\n")
	fmt.Fprintf(&b, "Subject: %s\n\n", c.Regular.Subject)
	fmt.Fprintf(&b, "Hi %s,\n\n", RecipientPlaceholder)
	b.WriteString("[GENERATE A COMPELLING 2-3 SENTENCE INTRODUCTION FOCUSING ON:\n")
	fmt.Fprintf(&b, "- %s\n- %s\n- %s\n- Mention %s if relevant]\n\n", benefits[0], benefits[1], country.Context, initiative)
	fmt.Fprintf(&b, "Why SN10 for %s Waste Management?\n\n", recipient.Title())

	suffixes := []string{
		"Real-time monitoring and optimization",
		"Reduce operational costs by up to 30%",
		"Enhance service quality and impact",
		"Advanced analytics and reporting",
		"Support " + country.Regulations,
	}
	for i, s := range suffixes {
		fmt.Fprintf(&b, "✅ %s – %s\n", benefits[i], s)
	}

	b.WriteString("\n🚀 Get Started with a Free Trial!\n\n")
	b.WriteString("We make it easy to evaluate our solution:\n\n")
	fmt.Fprintf(&b, "📅 Schedule a Demo: %s\n", c.Links.Calendar)
	fmt.Fprintf(&b, "📱 WhatsApp or Call Us: %s\n", c.Links.WhatsApp)
	fmt.Fprintf(&b, "🎟 Request a Trial Project: %s\n\n", c.Links.Trial)
	fmt.Fprintf(&b, "You can also visit our website for more details: %s\n\n", c.Links.Website)
	b.WriteString("Looking forward to helping you modernize waste management and achieve your sustainability targets!\n\n")
	fmt.Fprintf(&b, "Best regards,\n%s\n%s\n%s\n", c.Company.SenderName, c.Company.SenderTitle, c.Company.Name)
	fmt.Fprintf(&b, "📞 %s | 🌐 %s\n", c.Company.Phone, c.Company.WebsiteLabel)
	fmt.Fprintf(&b, "📲 WhatsApp: %s\n\n", c.Company.WhatsApp)
	b.WriteString(`IMPORTANT: DO NOT write "Rest of the email remains the same" or any similar placeholder. Include the complete email as shown above.`)
	return b.String()
}

func writeKnowledge(b *strings.Builder, label, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	fmt.Fprintf(b, "%s:\n%s\n", label, text)
}
