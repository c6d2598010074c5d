package main

import (
	"fmt"
	"strings"

	"github.com/glebk/whoshere-bot/internal/bot"
	"github.com/glebk/whoshere-bot/internal/domain"
	"github.com/glebk/whoshere-bot/internal/repository"
	"github.com/glebk/whoshere-bot/internal/service"

	"github.com/spf13/cobra"
)

func askCmd() *cobra.Command {
	var userID, userName string

	cmd := &cobra.Command{
		Use:   "ask <command> [text...]",
		Short: "Run a command against the configured storage and print the reply",
		Example: `  whoshere-bot ask whoshere office today
  whoshere-bot ask iamhere home friday --user U123 --name alice`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			store, err := repository.New(ctx, cfg.Storage, log)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer store.Close()

			svc := service.NewPresenceService(store.Presence, store.Users, log, service.Options{
				RequestTimeout: cfg.HTTP.RequestTimeout,
			})

			name := args[0]
			if !strings.HasPrefix(name, "/") {
				name = "/" + name
			}

			reply, err := svc.Execute(ctx, domain.Command{
				Name:     name,
				Text:     strings.Join(args[1:], " "),
				UserID:   userID,
				UserName: userName,
			})
			if err != nil {
				return err
			}
			if reply != nil {
				fmt.Fprintln(cmd.OutOrStdout(), bot.RenderPlain(reply))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "caller user id")
	cmd.Flags().StringVar(&userName, "name", "", "caller display name")

	return cmd
}
