package cli

import (
	"neurowind/shared/email"

	"github.com/spf13/cobra"
)

var gmailAuthCmd = &cobra.Command{
	Use:   "gmail-auth",
	Short: "Authorize Gmail delivery and store the token",
	Long: `Run the OAuth consent flow for the Gmail provider and save the token to
email.token_file. Requires email.client_id and email.client_secret
(or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return email.AuthorizeGmail(cmd.Context(), &cfg.Email, cmd.OutOrStdout())
	},
}
