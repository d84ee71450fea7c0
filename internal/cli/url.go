package cli

import (
	"fmt"
	"strings"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/services"
	"ezstream/internal/presenter"

	"github.com/spf13/cobra"
)

type streamFlags struct {
	serial     string
	channel    int
	protocol   domain.Protocol
	quality    domain.Quality
	expire     int
	streamType string
	start      string
	stop       string
}

// apply overlays the flags the user actually set on req.
func (f *streamFlags) apply(cmd *cobra.Command, req *domain.StreamRequest) error {
	flags := cmd.Flags()
	if flags.Changed("serial") {
		req.DeviceSerial = f.serial
	}
	if flags.Changed("channel") {
		req.Channel = f.channel
	}
	if flags.Changed("protocol") {
		req.Protocol = f.protocol
	}
	if flags.Changed("quality") {
		req.Quality = f.quality
	}
	if flags.Changed("expire") {
		req.ExpireSeconds = f.expire
	}
	if flags.Changed("type") {
		t, err := domain.ParseStreamType(f.streamType)
		if err != nil {
			return err
		}
		req.Type = t
	}
	req.StartTime = f.start
	req.StopTime = f.stop
	return nil
}

type urlOutput struct {
	URL    string               `json:"url,omitempty"`
	Result *domain.StreamResult `json:"result"`
}

func (a *app) newURLCmd() *cobra.Command {
	var (
		creds credentialFlags
		sf    = streamFlags{protocol: domain.ProtocolHLS, quality: domain.QualityHD}
	)

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Generate a live or playback stream URL",
		Long: `Authenticate and request a stream address for a device channel.

Unset flags fall back to the saved profile, then to the defaults
(channel 1, HLS, HD, 3600 seconds).

Examples:
  ezstream url --serial FG3451360
  ezstream url --serial FG3451360 --protocol 3 --quality fluent
  ezstream url --serial FG3451360 --type playback \
      --start "2024-05-01 10:00:00" --stop "2024-05-01 11:00:00"
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProfile(cmd.Context())
			if err != nil {
				return err
			}

			req := p.StreamRequest()
			if err := sf.apply(cmd, &req); err != nil {
				return err
			}

			session, err := a.authenticate(cmd, creds, p)
			if err != nil {
				return err
			}

			streams := services.NewStreamService(a.gateway, a.publisher(cmd), a.log)
			result, err := streams.GenerateURL(cmd.Context(), session, req)
			if err != nil {
				return err
			}

			if a.output == "json" {
				if err := writeJSON(cmd.OutOrStdout(), urlOutput{URL: presenter.CopyableURL(result), Result: result}); err != nil {
					return err
				}
			} else {
				a.printStream(cmd, result)
			}

			if !result.Success() {
				return errReported
			}
			return nil
		},
	}

	creds.register(cmd)
	cmd.Flags().StringVarP(&sf.serial, "serial", "s", "", "device serial number (default "+domain.DefaultDeviceSerial+")")
	cmd.Flags().IntVarP(&sf.channel, "channel", "c", domain.DefaultChannel, "channel number")
	cmd.Flags().Var(&sf.protocol, "protocol", "1 ezopen, 2 HLS, 3 RTMP, 4 FLV")
	cmd.Flags().Var(&sf.quality, "quality", "1 HD (main), 2 fluent (sub)")
	cmd.Flags().IntVar(&sf.expire, "expire", domain.DefaultExpireSeconds, "URL lifetime in seconds")
	cmd.Flags().StringVar(&sf.streamType, "type", string(domain.StreamTypeLive), "live or playback")
	cmd.Flags().StringVar(&sf.start, "start", "", "playback start, e.g. \"2024-05-01 10:00:00\"")
	cmd.Flags().StringVar(&sf.stop, "stop", "", "playback stop, e.g. \"2024-05-01 11:00:00\"")

	return cmd
}

func (a *app) printStream(cmd *cobra.Command, result *domain.StreamResult) {
	out := cmd.OutOrStdout()
	paint := a.painter(out)

	title, rest := presenter.Title(presenter.Stream(result))
	if result.Success() {
		if result.URL != "" {
			rest = strings.Replace(rest, "URL: "+result.URL, "URL: "+paint.url(result.URL), 1)
		}
		fmt.Fprintln(out, paint.success(title))
	} else {
		fmt.Fprintln(out, paint.failure(title))
	}
	fmt.Fprintln(out, rest)
}
