package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sensiq/coldmail"
	"github.com/sensiq/coldmail/internal/assets"
	"github.com/sensiq/coldmail/internal/campaign"
	"github.com/sensiq/coldmail/internal/content"
)

var (
	emailReq   content.Request
	recipient  string
	previewOut string
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate an email without sending it",
	Long: `Generate an email and print its subject and HTML body. Inline images
are embedded as data URLs so the output can be opened in a browser.

Without --to the [recipient_name] placeholder is left in place.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := newCampaign()
		if err != nil {
			return err
		}
		if err := svc.Validate(emailReq); err != nil {
			return err
		}

		p, err := svc.Preview(cmd.Context(), emailReq, recipient)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Subject: %s\n", p.Subject)
		if previewOut == "" {
			fmt.Fprintf(out, "\n%s\n", p.Body)
			return nil
		}
		if err := os.WriteFile(previewOut, []byte(p.Body), 0o644); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
		fmt.Fprintf(out, "✓ Body written to %s\n", previewOut)
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Generate an email and send it to one address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := newCampaign()
		if err != nil {
			return err
		}
		if err := svc.Validate(emailReq); err != nil {
			return err
		}
		if err := svc.Send(cmd.Context(), emailReq, recipient); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Email sent successfully to %s\n", recipient)
		return nil
	},
}

func newCampaign() (*campaign.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := console(cfg.Logger.Level)

	composer, _, err := coldmail.NewComposer(cfg, log, nil)
	if err != nil {
		return nil, err
	}
	return coldmail.NewCampaign(cfg, composer, assets.NewDir(cfg.Assets.Dir), log)
}

func init() {
	for _, c := range []*cobra.Command{previewCmd, sendCmd} {
		c.Flags().StringVar(&emailReq.EmailType, "type", content.DefaultEmailType, "email type: regular, product or followup")
		c.Flags().StringVar(&emailReq.RecipientType, "recipient", content.DefaultRecipientType, "recipient category")
		c.Flags().StringVar(&emailReq.Country, "country", content.DefaultCountry, "recipient country")
		c.Flags().StringVar(&emailReq.Language, "language", content.DefaultLanguage, "email language")
		c.Flags().StringVar(&emailReq.FollowupStage, "stage", "", "follow-up stage: first, second or third")
		c.Flags().StringVar(&recipient, "to", "", "recipient address")
	}
	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "", "write the HTML body to a file")
	_ = sendCmd.MarkFlagRequired("to")
}
