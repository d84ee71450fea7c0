package cli

import (
	"fmt"

	"ezstream/internal/core/domain"
	"ezstream/pkg/utils"

	"github.com/spf13/cobra"
)

func (a *app) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Save or show the stored form settings",
	}

	cmd.AddCommand(a.newProfileSaveCmd())
	cmd.AddCommand(a.newProfileShowCmd())
	return cmd
}

func (a *app) newProfileSaveCmd() *cobra.Command {
	var (
		creds         credentialFlags
		sf            = streamFlags{protocol: domain.ProtocolHLS, quality: domain.QualityHD}
		includeSecret bool
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Update the profile file with the given settings",
		Long: `Merge the given flags into the profile file and write it back.

The app secret is only written with --include-secret; without it any
secret already in the file is dropped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProfile(cmd.Context())
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("app-key") {
				p.AppKey = creds.appKey
			}
			if flags.Changed("app-secret") {
				p.AppSecret = creds.appSecret
			}
			if includeSecret && p.AppSecret == "" {
				p.AppSecret = a.getenv(EnvAppSecret)
			}

			req := p.StreamRequest()
			if err := sf.apply(cmd, &req); err != nil {
				return err
			}
			p.DeviceSerial = req.DeviceSerial
			p.Channel = req.Channel
			p.Protocol = req.Protocol
			p.Quality = req.Quality
			p.ExpireTime = req.ExpireSeconds

			if err := a.store.Save(cmd.Context(), p, includeSecret); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			msg := "Configuration saved to " + a.store.Path()
			fmt.Fprintln(cmd.OutOrStdout(), a.painter(cmd.OutOrStdout()).success(msg))
			return nil
		},
	}

	creds.register(cmd)
	cmd.Flags().StringVarP(&sf.serial, "serial", "s", "", "device serial number")
	cmd.Flags().IntVarP(&sf.channel, "channel", "c", domain.DefaultChannel, "channel number")
	cmd.Flags().Var(&sf.protocol, "protocol", "1 ezopen, 2 HLS, 3 RTMP, 4 FLV")
	cmd.Flags().Var(&sf.quality, "quality", "1 HD (main), 2 fluent (sub)")
	cmd.Flags().IntVar(&sf.expire, "expire", domain.DefaultExpireSeconds, "URL lifetime in seconds")
	cmd.Flags().BoolVar(&includeSecret, "include-secret", false, "also store the app secret (plain text)")

	return cmd
}

func (a *app) newProfileShowCmd() *cobra.Command {
	var showSecret bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.store.Load(cmd.Context(), domain.DefaultProfile())
			if err != nil {
				return err
			}
			if !showSecret && p.AppSecret != "" {
				p.AppSecret = utils.MaskSensitive(p.AppSecret, 0)
			}

			if a.output != "json" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", a.store.Path())
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().BoolVar(&showSecret, "show-secret", false, "print the app secret unmasked")
	return cmd
}
