package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	jwttoken "credo/internal/jwt_token"
	"credo/internal/platform/config"
	"credo/pkg/domain"
)

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		slog.Error("failed to run credo-token", "err", err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "credo-token",
		Short: "Mint and inspect caller tokens",
		Long:  "credo-token signs development caller tokens with the registry's JWT settings (CREDO_CONFIG and environment).",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}
	root.AddCommand(newMintCommand(out), newInspectCommand(out))
	return root
}

func jwtService() (*jwttoken.JWTService, config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience), cfg, nil
}

func newMintCommand(out io.Writer) *cobra.Command {
	var (
		caller string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Sign a token for a caller address",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := domain.ParseAddress(caller)
			if err != nil {
				return fmt.Errorf("caller: %w", err)
			}
			svc, cfg, err := jwtService()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			token, err := svc.GenerateCallerToken(addr, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			_, err = fmt.Fprintln(out, token)
			return err
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "caller address (0x-prefixed)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to the configured token TTL)")
	_ = cmd.MarkFlagRequired("caller")
	return cmd
}

func newInspectCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Verify a token and print its caller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := jwtService()
			if err != nil {
				return err
			}
			claims, err := svc.ValidateToken(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "caller=%s jti=%s expires=%s\n",
				claims.Subject, claims.ID, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
			return err
		},
	}
}
