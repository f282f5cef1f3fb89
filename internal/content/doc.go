// Package content produces the subject and body of every outgoing email.
//
// Three providers exist. The regular provider asks a language model for an
// introduction, grounded in text retrieved from the knowledge base, and lays
// the result out in the branded HTML shell. The product and follow-up
// providers render embedded templates from the static catalog.
//
// Composer picks the provider for a Request and personalises the result:
//
//	composer := content.NewComposer(catalog, content.NewRegularProvider(catalog, llmClient, content.WithRetriever(retriever)))
//	email, err := composer.Compose(ctx, content.Request{EmailType: content.TypeFollowup, FollowupStage: "second"})
//	body := content.Personalize(email.HTML, content.DisplayName("jane_smith@example.com"))
package content
