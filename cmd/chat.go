package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/signbridge/clients"
	cfg "github.com/maastricht-university/signbridge/config"
	"github.com/maastricht-university/signbridge/sinks"
)

func (a *app) chatCmd() *cobra.Command {
	chat := &cobra.Command{
		Use:   "chat",
		Short: "Read or write the room's chat sidecar",
	}

	history := &cobra.Command{
		Use:   "history",
		Short: "Print every chat line of the room",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := a.load()
			if err != nil {
				return err
			}
			lines, err := sinks.ReadChat(c.ChatLogPath(c.Pipeline.Room))
			if err != nil {
				return err
			}
			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}

	var sender string
	send := &cobra.Command{
		Use:   "send <message>",
		Short: "Append a message to the room's chat and forward it over the chat transport",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, log, err := a.load()
			if err != nil {
				return err
			}
			msg := strings.TrimSpace(strings.Join(args, " "))
			if msg == "" {
				return fmt.Errorf("chat: empty message")
			}
			if err := sinks.AppendChat(c.ChatLogPath(c.Pipeline.Room), time.Now(), sender, msg); err != nil {
				return err
			}

			var n sinks.Notifier
			switch c.Chat.Transport {
			case "http":
				var secret []byte
				if c.Chat.TokenSecretEnv != "" {
					secret = []byte(os.Getenv(c.Chat.TokenSecretEnv))
				}
				hn, err := sinks.NewHTTPNotifier(clients.NewHTTP(cfg.DurSeconds(c.Timeouts.SinkSeconds)), c.Chat.URL, c.Pipeline.Room, secret)
				if err != nil {
					return err
				}
				n = hn
			case "redis":
				rn := sinks.NewRedisNotifier(c.Chat.RedisAddr, c.Chat.RedisChannel)
				defer rn.Close()
				n = rn
			default:
				return nil
			}
			ctx := cmd.Context()
			if err := n.Notify(ctx, clients.ChatMessage{Sender: sender, Receiver: "room", Message: msg}); err != nil {
				log.WithError(err).Warn("chat forward failed, message kept in the sidecar")
			}
			return nil
		},
	}
	send.Flags().StringVar(&sender, "sender", "Teacher", "sender name written to the chat")

	chat.AddCommand(history, send)
	return chat
}
