package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/WhiteDevil-93/jules/internal/logging"
	"github.com/WhiteDevil-93/jules/internal/secrets"
)

func newAuthCmd(flags *rootFlags) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Jules API key",
	}

	setKeyCmd := &cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the Jules API key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				fmt.Fprint(os.Stderr, "API key: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return fmt.Errorf("read key: %w", err)
				}
				key = strings.TrimSpace(line)
			}
			if key == "" {
				logging.Warn("empty key, nothing stored")
				return nil
			}

			if err := secrets.SetAPIKey(cfg.StateDir, key); err != nil {
				return err
			}
			logging.Success("API key stored")
			return nil
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the stored API key is accepted by the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			if !client.VerifyKey(cmd.Context()) {
				return fmt.Errorf("API key rejected by %s", cfg.APIBaseURL)
			}
			logging.Success("API key is valid")
			return nil
		},
	}

	clearKeyCmd := &cobra.Command{
		Use:   "clear-key",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if err := secrets.DeleteAPIKey(cfg.StateDir); err != nil {
				return err
			}
			logging.Success("API key removed")
			return nil
		},
	}

	authCmd.AddCommand(setKeyCmd, verifyCmd, clearKeyCmd)
	return authCmd
}
