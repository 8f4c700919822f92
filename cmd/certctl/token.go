package main

import (
	"time"

	"github.com/spf13/cobra"

	"certledger/internal/callertoken"
	"certledger/internal/platform/config"
	"certledger/pkg/domain"
)

type tokenOutput struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	Caller    string `json:"caller"`
	ExpiresIn string `json:"expires_in"`
}

func tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Caller token utilities",
	}

	var (
		addr string
		ttl  time.Duration
	)
	mint := &cobra.Command{
		Use:   "mint",
		Short: "Mint a caller token signed with CERTLEDGER_JWT_SIGNING_KEY",
		Long: "Mint a bearer token asserting the given identity. Tokens are only as trustworthy\n" +
			"as the signing key; use this against development servers.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := domain.ParseAddress(addr)
			if err != nil {
				return err
			}
			cfg, err := config.TokenFromEnv()
			if err != nil {
				return err
			}
			if ttl > 0 {
				cfg.TTL = ttl
			}

			svc := callertoken.NewService(cfg.SigningKey, cfg.Issuer, cfg.Audience, cfg.TTL)
			token, err := svc.Issue(cmd.Context(), caller)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tokenOutput{
				Token:     token,
				Type:      "Bearer",
				Caller:    caller.String(),
				ExpiresIn: cfg.TTL.String(),
			})
		},
	}
	mint.Flags().StringVar(&addr, "addr", "", "caller identity (0x-prefixed address)")
	mint.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to CERTLEDGER_TOKEN_TTL)")
	_ = mint.MarkFlagRequired("addr")

	cmd.AddCommand(mint)
	return cmd
}
