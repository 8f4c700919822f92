package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"certledger/internal/metadata"
	"certledger/pkg/domain"
)

func certificateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cert",
		Aliases: []string{"certificate"},
		Short:   "Issue, revoke and verify certificates",
	}
	cmd.AddCommand(issueCommand(), revokeCommand(), verifyCommand(), holderCommand(), countCommand())
	return cmd
}

func issueCommand() *cobra.Command {
	var (
		holder, subject, program, hash, metadataFile string
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a certificate against a content hash or a metadata document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body := map[string]any{
				"holder":       holder,
				"subject_name": subject,
				"program_name": program,
				"content_hash": hash,
			}
			if metadataFile != "" {
				raw, err := os.ReadFile(metadataFile)
				if err != nil {
					return fmt.Errorf("read metadata file: %w", err)
				}
				var doc metadata.Metadata
				if err := json.Unmarshal(raw, &doc); err != nil {
					return fmt.Errorf("parse metadata file: %w", err)
				}
				body["metadata"] = &doc
			}

			var out map[string]any
			if err := newClient().do(cmd.Context(), http.MethodPost, "/certificates", body, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&holder, "holder", "", "holder address")
	cmd.Flags().StringVar(&subject, "subject", "", "subject (student) name")
	cmd.Flags().StringVar(&program, "program", "", "program (course) name")
	cmd.Flags().StringVar(&hash, "content-hash", "", "content hash of already pinned metadata")
	cmd.Flags().StringVar(&metadataFile, "metadata-file", "", "JSON metadata document to pin before issuing")
	cmd.MarkFlagsMutuallyExclusive("content-hash", "metadata-file")
	return cmd
}

func revokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			certID, err := domain.ParseCertificateID(args[0])
			if err != nil {
				return err
			}
			var out map[string]any
			if err := newClient().do(cmd.Context(), http.MethodPost, "/certificates/"+certID.String()+"/revoke", nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func verifyCommand() *cobra.Command {
	var (
		hash     string
		withMeta bool
	)
	cmd := &cobra.Command{
		Use:   "verify [id]",
		Short: "Verify a certificate by id, or by content hash with --hash",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			switch {
			case hash != "":
				path = "/verify?content_hash=" + url.QueryEscape(hash)
			case len(args) == 1:
				certID, err := domain.ParseCertificateID(args[0])
				if err != nil {
					return err
				}
				path = "/certificates/" + certID.String() + "/verify"
				if withMeta {
					path += "?include=metadata"
				}
			default:
				return fmt.Errorf("an id or --hash is required")
			}

			var out map[string]any
			if err := newClient().do(cmd.Context(), http.MethodGet, path, nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&hash, "hash", "", "verify by content hash instead of id")
	cmd.Flags().BoolVar(&withMeta, "metadata", false, "include the pinned metadata document")
	return cmd
}

func holderCommand() *cobra.Command {
	var detail bool
	cmd := &cobra.Command{
		Use:   "holder <address>",
		Short: "List a holder's certificates in issuance order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			holder, err := domain.ParseAddress(args[0])
			if err != nil {
				return err
			}
			path := "/holders/" + holder.String() + "/certificates"
			if detail {
				path += "?detail=true"
			}
			var out map[string]any
			if err := newClient().do(cmd.Context(), http.MethodGet, path, nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&detail, "detail", false, "include each certificate's verification")
	return cmd
}

func countCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of certificates ever issued",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out map[string]any
			if err := newClient().do(cmd.Context(), http.MethodGet, "/certificates/count", nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}
