package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/capstone-ai/dna"
	"github.com/capstone-ai/dna/internal/cli"
	"github.com/capstone-ai/dna/internal/presentation/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cfg, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		cid, _ := cmd.Flags().GetString("conversation")
		if cid == "" {
			cid = uuid.NewString()
		}
		project, _ := cmd.Flags().GetString("project")
		room, _ := cmd.Flags().GetString("room")
		mode, _ := cmd.Flags().GetString("mode")

		renderer, err := cli.NewRenderer(os.Stdout)
		if err != nil {
			return err
		}
		if cli.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout, dna.Version)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return cli.RunChat(ctx, app.Assistant, renderer, os.Stdin, os.Stdout, cli.ChatOptions{
			ConversationID: cid,
			ProjectID:      project,
			ChatRoomID:     room,
			Mode:           mode,
			MaxInputSize:   cfg.Server.MaxInputSize,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("conversation", "", "Conversation id (random when empty)")
	chatCmd.Flags().String("project", "", "Project id bound to the conversation")
	chatCmd.Flags().String("room", "", "Chat room id bound to the conversation")
	chatCmd.Flags().String("mode", "auto", "auto, chat or tool")
	chatCmd.Flags().String("catalog", "", "Extra tool catalog (YAML or JSON)")
	chatCmd.Flags().String("dispatch", "", "Dispatch table overlay (YAML)")
	chatCmd.Flags().String("store", "memory", "Conversation store: memory or file (resume with --conversation)")
	chatCmd.Flags().String("store-dir", ".dna", "Directory for the file store")
}
