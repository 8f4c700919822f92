package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"certledger/pkg/domain"
)

func issuerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issuers",
		Short: "Manage the issuer set (owner only for changes)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <address>",
		Short: "Authorize an issuer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := domain.ParseAddress(args[0])
			if err != nil {
				return err
			}
			var out map[string]any
			body := map[string]string{"identity": identity.String()}
			if err := newClient().do(cmd.Context(), http.MethodPost, "/issuers", body, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <address>",
		Short: "Withdraw an issuer's authorization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := domain.ParseAddress(args[0])
			if err != nil {
				return err
			}
			var out map[string]any
			if err := newClient().do(cmd.Context(), http.MethodDelete, "/issuers/"+identity.String(), nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the owner and authorized issuers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out map[string]any
			if err := newClient().do(cmd.Context(), http.MethodGet, "/issuers", nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	})

	return cmd
}
