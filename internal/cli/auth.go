package cli

import (
	"fmt"
	"time"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/services"
	"ezstream/internal/presenter"
	"ezstream/pkg/utils"

	"github.com/spf13/cobra"
)

type credentialFlags struct {
	appKey    string
	appSecret string
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.appKey, "app-key", "", "application key (or "+EnvAppKey+")")
	cmd.Flags().StringVar(&f.appSecret, "app-secret", "", "application secret (or "+EnvAppSecret+"; prompted when missing)")
}

// authenticate resolves credentials and obtains a vendor session. Failures
// are rendered the way the form reported them.
func (a *app) authenticate(cmd *cobra.Command, creds credentialFlags, p domain.Profile) (*domain.Session, error) {
	c, err := a.credentials(cmd, creds.appKey, creds.appSecret, p)
	if err != nil {
		return nil, err
	}

	auth := services.NewAuthService(a.gateway, a.publisher(cmd), a.log)
	session, err := auth.Authenticate(cmd.Context(), c)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), a.painter(cmd.ErrOrStderr()).failure(presenter.AuthFailure(err)))
		return nil, errReported
	}
	return session, nil
}

type authOutput struct {
	AccessToken string     `json:"access_token"`
	AreaDomain  string     `json:"area_domain"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (a *app) newAuthCmd() *cobra.Command {
	var creds credentialFlags

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Check credentials and print the access token details",
		Long: `Exchange the app key and secret for an access token.

Credentials are taken from --app-key/--app-secret, then EZVIZ_APP_KEY and
EZVIZ_APP_SECRET, then the saved profile. A missing secret is prompted for.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProfile(cmd.Context())
			if err != nil {
				return err
			}

			session, err := a.authenticate(cmd, creds, p)
			if err != nil {
				return err
			}

			if a.output == "json" {
				out := authOutput{AccessToken: session.AccessToken, AreaDomain: session.AreaDomain}
				if !session.ExpiresAt.IsZero() {
					out.ExpiresAt = &session.ExpiresAt
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			title, rest := presenter.Title(presenter.AuthSuccess(session))
			fmt.Fprintln(cmd.OutOrStdout(), a.painter(cmd.OutOrStdout()).success(title))
			fmt.Fprintln(cmd.OutOrStdout(), rest)
			if !session.ExpiresAt.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "Valid for: %s\n", utils.FormatDuration(utils.Remaining(session.ExpiresAt)))
			}
			return nil
		},
	}

	creds.register(cmd)
	return cmd
}
