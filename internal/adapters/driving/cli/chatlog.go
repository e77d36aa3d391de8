package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var chatlogCmd = &cobra.Command{
	Use:   "chatlog",
	Short: "Inspect recorded questions and answers",
}

var chatlogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored chat logs",
	Args:  cobra.NoArgs,
	RunE:  runChatlogList,
}

func init() {
	requiresPipeline(chatlogListCmd)
	chatlogCmd.AddCommand(chatlogListCmd)
	rootCmd.AddCommand(chatlogCmd)
}

func runChatlogList(cmd *cobra.Command, _ []string) error {
	if chatLogService == nil {
		return errors.New("chat log service not configured")
	}

	names, err := chatLogService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing chat logs failed: %w", err)
	}

	if len(names) == 0 {
		cmd.Println("No chat logs found.")
		return nil
	}
	for _, name := range names {
		cmd.Println(name)
	}
	return nil
}
