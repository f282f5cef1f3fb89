package campaign_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensiq/coldmail/internal/assets"
	"github.com/sensiq/coldmail/internal/campaign"
	"github.com/sensiq/coldmail/internal/content"
	"github.com/sensiq/coldmail/pkg/mailer"
)

type stubLLM struct{}

func (stubLLM) Complete(context.Context, string, string) (string, error) {
	return "Subject: Hello there\n\nHi [recipient_name],\n\nIntro.\n\nWhy SN10 for Municipality Waste Management?\n✅ One – Two", nil
}

type outbox struct {
	mu   sync.Mutex
	sent []*mailer.Email
	err  error
}

func (o *outbox) Send(_ context.Context, e *mailer.Email) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, e)
	return nil
}

func newService(t *testing.T, box *outbox, images fstest.MapFS) *campaign.Service {
	t.Helper()
	catalog, err := content.LoadCatalog()
	require.NoError(t, err)

	composer := content.NewComposer(catalog, content.NewRegularProvider(catalog, stubLLM{}))
	m := mailer.New(box, mailer.Config{SenderEmail: "rebecca@sensiq.ae", SenderName: "Rebecca"})
	return campaign.New(composer, assets.New(images), m, nil)
}

func images() fstest.MapFS {
	return fstest.MapFS{
		"logo.png":  {Data: []byte("logo")},
		"Cover.png": {Data: []byte("cover")},
		"SN10.jpg":  {Data: []byte("sn10")},
	}
}

func TestService_Preview(t *testing.T) {
	t.Parallel()

	svc := newService(t, &outbox{}, images())

	p, err := svc.Preview(context.Background(), content.Request{}, "john.doe42@city.gov")
	require.NoError(t, err)
	assert.Equal(t, "Hello there", p.Subject)
	assert.Contains(t, p.Body, "Hi John Doe,")
	assert.NotContains(t, p.Body, "cid:")
	assert.Contains(t, p.Body, "data:image/jpeg;base64,")

	p, err = svc.Preview(context.Background(), content.Request{EmailType: "followup", FollowupStage: "first"}, "")
	require.NoError(t, err)
	assert.Contains(t, p.Body, "Hi [recipient_name],")
}

func TestService_Send(t *testing.T) {
	t.Parallel()

	box := &outbox{}
	svc := newService(t, box, images())

	err := svc.Send(context.Background(), content.Request{EmailType: "product"}, "jane_smith@x.com")
	require.NoError(t, err)

	require.Len(t, box.sent, 1)
	sent := box.sent[0]
	assert.Equal(t, []string{"jane_smith@x.com"}, sent.To)
	assert.Equal(t, `"Rebecca" <rebecca@sensiq.ae>`, sent.From)
	assert.Contains(t, sent.HTML, "Hi Jane Smith,")
	assert.Len(t, sent.Inline, 3)
	assert.NotEmpty(t, sent.Text)
}

func TestService_SendErrors(t *testing.T) {
	t.Parallel()

	svc := newService(t, &outbox{}, images())
	err := svc.Send(context.Background(), content.Request{}, "not-an-address")
	assert.ErrorIs(t, err, campaign.ErrInvalidRecipient)
	assert.ErrorIs(t, err, mailer.ErrInvalidAddress)

	failing := newService(t, &outbox{err: errors.New("relay down")}, images())
	err = failing.Dispatch(context.Background(), content.Request{EmailType: "product"}, "a@b.com")
	assert.ErrorIs(t, err, mailer.ErrSendFailed)

	noImages := newService(t, &outbox{}, fstest.MapFS{})
	assert.ErrorIs(t, noImages.Preflight(context.Background()), assets.ErrMissing)
	err = noImages.Send(context.Background(), content.Request{EmailType: "product"}, "a@b.com")
	assert.ErrorIs(t, err, assets.ErrNotFound)
}

func TestService_Diagnostics(t *testing.T) {
	t.Parallel()

	svc := newService(t, &outbox{}, images())

	d, err := svc.TestStructure(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Structure, 20)
	assert.Equal(t, "From: <test@example.com>", d.Structure[0])
	assert.Contains(t, strings.Join(d.Structure, "\n"), "Subject: Test Email Structure")

	d, err = svc.TestRegular(context.Background())
	require.NoError(t, err)
	assert.True(t, d.ProductImageReferenced)
	assert.True(t, strings.HasSuffix(d.BodyExcerpt, "..."))
	assert.LessOrEqual(t, len(d.BodyExcerpt), 1003)
}
