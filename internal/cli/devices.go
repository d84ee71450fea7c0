package cli

import (
	"fmt"
	"text/tabwriter"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/services"

	"github.com/spf13/cobra"
)

func (a *app) newDevicesCmd() *cobra.Command {
	var (
		creds    credentialFlags
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List devices bound to the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProfile(cmd.Context())
			if err != nil {
				return err
			}

			session, err := a.authenticate(cmd, creds, p)
			if err != nil {
				return err
			}

			devices := services.NewDeviceService(a.gateway, a.log)
			result, err := devices.ListDevices(cmd.Context(), session, page, pageSize)
			if err != nil {
				return err
			}

			if a.output == "json" {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			if len(result.Devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No devices found.")
				return nil
			}

			paint := a.painter(cmd.OutOrStdout())
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SERIAL\tNAME\tTYPE\tSTATUS\tVERSION")
			for _, d := range result.Devices {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Serial, d.Name, d.Type, deviceStatus(d, paint), d.Version)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d, %d of %d devices\n",
				result.Page.Page, len(result.Devices), result.Page.Total)
			return nil
		},
	}

	creds.register(cmd)
	cmd.Flags().IntVar(&page, "page", 0, "page index, starting at 0")
	cmd.Flags().IntVar(&pageSize, "size", domain.DefaultPageSize, "devices per page")

	return cmd
}

func deviceStatus(d domain.Device, paint painter) string {
	if d.Online {
		return paint.success("online")
	}
	return paint.failure("offline")
}
