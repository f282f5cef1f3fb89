package content_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensiq/coldmail/internal/content"
	"github.com/sensiq/coldmail/internal/vector"
)

func loadCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	c, err := content.LoadCatalog()
	require.NoError(t, err)
	return c
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)

	ksa, ok := c.Country("Kingdom of Saudi Arabia")
	assert.True(t, ok)
	assert.Equal(t, "KSA", ksa.Key)

	india, ok := c.Country("india")
	assert.True(t, ok)
	assert.Equal(t, "India", india.Key)

	fallback, ok := c.Country("Atlantis")
	assert.False(t, ok)
	assert.Equal(t, "UAE", fallback.Key)

	r, ok := c.Recipient("waste_management")
	assert.True(t, ok)
	assert.Equal(t, "Waste Management", r.Title())

	r, ok = c.Recipient("astronaut")
	assert.False(t, ok)
	assert.Equal(t, "municipality", r.Key)

	_, ok = c.Stage("fourth")
	assert.False(t, ok)
	second, ok := c.Stage("second")
	require.True(t, ok)
	assert.Equal(t, "Re: ", second.SubjectPrefix)

	chunk := c.Product.KnowledgeChunk()
	assert.Contains(t, chunk, "- Title: SN10")
	assert.Contains(t, chunk, "> Sleep Current: <10 μA")
	assert.Contains(t, chunk, "* Tamper detection alerts")
}

func TestParseCatalog_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "company: [unclosed"},
		{"missing sections", "company:\n  name: SensIQ\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := content.ParseCatalog([]byte(tt.yaml))
			assert.ErrorIs(t, err, content.ErrCatalog)
		})
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		want  string
	}{
		{"john.doe123@x.com", "John Doe"},
		{"jane_smith@x.com", "Jane Smith"},
		{"xyz@x.com", "Xyz"},
		{"12345@x.com", "Valued Professional"},
		{"mary-ann.van.der.berg@x.com", "Mary Ann"},
		{"", "Valued Professional"},
		{"ALICE@x.com", "Alice"},
		{"+++@x.com", "Valued Professional"},
		{"o'brien@x.com", "O'brien"},
		{"+.jane@x.com", "Jane"},
		{"mcdonald-OLD@x.com", "Mcdonald Old"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, content.DisplayName(tt.email))
		})
	}
}

func TestPersonalize(t *testing.T) {
	t.Parallel()

	got := content.Personalize("Hi [recipient_name], dear {{recipient_name}}", "Jane Smith")
	assert.Equal(t, "Hi Jane Smith, dear Jane Smith", got)
}

func TestParseCompletion(t *testing.T) {
	t.Parallel()

	const def = "Default subject"

	t.Run("think block and subject", func(t *testing.T) {
		raw := "<think>\nplanning the email\n</think>\n**Subject: Smart Bins**\n\nHi [recipient_name],\n\nIntro line.\n[Generate more here]\nOkay, done.\n\n"
		subject, body := content.ParseCompletion(raw, def)
		assert.Equal(t, "Smart Bins", subject)
		assert.Equal(t, "Hi [recipient_name],\n\nIntro line.", body)
	})

	t.Run("dangling think close", func(t *testing.T) {
		raw := "reasoning without an opening tag</think>Subject: Hello\nBody"
		subject, body := content.ParseCompletion(raw, def)
		assert.Equal(t, "Hello", subject)
		assert.Equal(t, "Body", body)
	})

	t.Run("no subject line", func(t *testing.T) {
		subject, body := content.ParseCompletion("\nHi there,\nText\n", def)
		assert.Equal(t, def, subject)
		assert.Equal(t, "Hi there,\nText", body)
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)
	r, _ := c.Recipient("charity")
	country, _ := c.Country("KSA")

	prompt := content.BuildPrompt(c, r, country, "Arabic", vector.Knowledge{Company: "SensIQ is an IoT company"})

	assert.Contains(t, prompt, "Generate a professional cold email for a charity in KSA")
	assert.Contains(t, prompt, "Write the email in Arabic.")
	assert.Contains(t, prompt, "Company:\nSensIQ is an IoT company")
	assert.Contains(t, prompt, "Why SN10 for Charity Waste Management?")
	assert.Contains(t, prompt, "✅ Support for Saudi Vision 2030 – Support Saudi environmental regulations and waste management standards")
	assert.Contains(t, prompt, "Subject: Smart ESG Waste Management – Get a Free Demo & Trial")
	assert.Contains(t, prompt, c.Links.Calendar)

	english := content.BuildPrompt(c, r, country, "English", vector.Knowledge{})
	assert.NotContains(t, english, "Write the email in")
	assert.NotContains(t, english, "background about the company")
}

type fakeCompleter struct {
	out    string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	f.prompt = prompt
	return f.out, f.err
}

type fakeRetriever struct {
	k   vector.Knowledge
	err error
}

func (f fakeRetriever) Retrieve(context.Context) (vector.Knowledge, error) {
	return f.k, f.err
}

const generated = `Subject: Smart ESG Waste Management – Get a Free Demo & Trial

Hi [recipient_name],

Your city can cut collection costs with **real-time** fill data.

Why SN10 for Municipality Waste Management?

✅ Smart City Integration – Real-time monitoring and optimization
✅ Cost Optimization – Reduce operational costs by up to 30%

🚀 Get Started with a Free Trial!

We make it easy to evaluate our solution:

📅 Schedule a Demo: https://calendly.com/rebecca-sensiq/30min
📱 WhatsApp or Call Us: https://wa.me/971528004558
🎟 Request a Trial Project: https://www.sensiq.ae/trial

You can also visit our website for more details: https://www.sensiq.ae

Looking forward to helping you modernize waste management and achieve your sustainability targets!

Best regards,
Rebecca`

func TestComposer_Regular(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)
	llm := &fakeCompleter{out: generated}
	regular := content.NewRegularProvider(c, llm,
		content.WithRetriever(fakeRetriever{err: errors.New("index down")}))
	composer := content.NewComposer(c, regular)

	email, err := composer.Compose(context.Background(), content.Request{})
	require.NoError(t, err)

	assert.Equal(t, "Smart ESG Waste Management – Get a Free Demo & Trial", email.Subject)
	assert.Contains(t, llm.prompt, "for a municipality in UAE")
	assert.NotContains(t, llm.prompt, "background about the company", "retrieval failure degrades to no background")

	html := email.HTML
	assert.Equal(t, 1, strings.Count(html, `class="product-showcase"`))
	assert.Contains(t, html, "<strong>real-time</strong>")
	assert.Equal(t, 2, strings.Count(html, `class="feature-item"`))
	assert.Contains(t, html, "Get Started with a Free Demo or Trial!")
	assert.Contains(t, html, `class="website-box"`)
	assert.Contains(t, html, `class="signature-box"`)
	assert.Contains(t, html, "cid:logo")
	assert.Contains(t, html, "cid:cover")
	assert.Contains(t, html, "cid:product")
	assert.NotContains(t, html, "Schedule a Demo: https://calendly.com")
	assert.Equal(t, strings.Count(html, "<div"), strings.Count(html, "</div>"))

	assert.Contains(t, email.Text, "Hi [recipient_name],")
}

func TestComposer_RegularErrors(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)

	failing := content.NewComposer(c, content.NewRegularProvider(c, &fakeCompleter{err: errors.New("rate limited")}))
	_, err := failing.Compose(context.Background(), content.Request{EmailType: "regular"})
	assert.ErrorIs(t, err, content.ErrGeneration)

	empty := content.NewComposer(c, content.NewRegularProvider(c, &fakeCompleter{out: "<think>only thoughts</think>"}))
	_, err = empty.Compose(context.Background(), content.Request{})
	assert.ErrorIs(t, err, content.ErrGeneration)
}

func TestComposer_Product(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)
	composer := content.NewComposer(c, nil)

	email, err := composer.Compose(context.Background(), content.Request{EmailType: "product"})
	require.NoError(t, err)
	assert.Equal(t, "Introducing SN10: Advanced Waste Management Solution", email.Subject)
	assert.Contains(t, email.HTML, "Sleep Current:")
	assert.Contains(t, email.HTML, "Ip Rating:")
	assert.Contains(t, email.HTML, "Weatherproof design")
	assert.Contains(t, email.HTML, "cid:product")
	assert.NotContains(t, email.HTML, "{{")
	assert.Contains(t, email.Text, "Technical Specifications")
	assert.NotContains(t, email.Text, "<div")

	_, err = composer.Compose(context.Background(), content.Request{EmailType: "regular"})
	assert.ErrorIs(t, err, content.ErrUnknownEmailType)
}

func TestComposer_Followup(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)
	composer := content.NewComposer(c, nil)

	tests := []struct {
		name    string
		req     content.Request
		subject string
		want    []string
		err     error
	}{
		{
			name:    "first stage in KSA for charity",
			req:     content.Request{EmailType: "followup", FollowupStage: "first", Country: "Kingdom of Saudi Arabia", RecipientType: "charity"},
			subject: "Following up: Smart Waste Management Solution for KSA",
			want:    []string{"charitable organizations", "Supporting KSA&#39;s Vision 2030", `class="feature-item"`},
		},
		{
			name:    "third stage defaults",
			req:     content.Request{EmailType: "followup", FollowupStage: "Third"},
			subject: "Final follow-up: Smart Waste Management Solution for UAE",
			want:    []string{"Free site assessment and ROI calculation", "UAE municipalities"},
		},
		{
			name:    "property management in India",
			req:     content.Request{EmailType: "followup", FollowupStage: "second", Country: "India", RecipientType: "property_management"},
			subject: "Re: Smart Waste Management Solution for India",
			want:    []string{"Smart City residential projects"},
		},
		{name: "missing stage", req: content.Request{EmailType: "followup"}, err: content.ErrStageRequired},
		{name: "unknown stage", req: content.Request{EmailType: "followup", FollowupStage: "fourth"}, err: content.ErrInvalidStage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err != nil {
				assert.ErrorIs(t, composer.Validate(tt.req), tt.err)
				_, err := composer.Compose(context.Background(), tt.req)
				assert.ErrorIs(t, err, tt.err)
				assert.ErrorIs(t, err, content.ErrInvalidRequest)
				return
			}

			require.NoError(t, composer.Validate(tt.req))
			email, err := composer.Compose(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, email.Subject)
			for _, w := range tt.want {
				assert.Contains(t, email.HTML, w)
			}
			assert.Contains(t, email.HTML, "Hi {{recipient_name}},")
		})
	}
}

func TestComposer_UnknownType(t *testing.T) {
	t.Parallel()

	composer := content.NewComposer(loadCatalog(t), nil)
	err := composer.Validate(content.Request{EmailType: "newsletter"})
	assert.ErrorIs(t, err, content.ErrUnknownEmailType)
	assert.ErrorIs(t, err, content.ErrInvalidRequest)
}
