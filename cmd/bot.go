package main

import (
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kulmaganbetov/china-factories-bot/internal/bot"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Start the Telegram bot",
	Long:  "Long-polls Telegram for updates and walks each chat through a product request before running the verification pipeline.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.RequireTelegram(); err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return eris.Wrap(err, "telegram auth")
		}
		zap.L().Info("telegram bot authorized", zap.String("username", api.Self.UserName))

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updates := api.GetUpdatesChan(u)

		go func() {
			<-ctx.Done()
			api.StopReceivingUpdates()
		}()

		return bot.New(api, env.Pipeline, cfg.Output.ResultsPath).Run(ctx, updates)
	},
}

func init() {
	rootCmd.AddCommand(botCmd)
}
