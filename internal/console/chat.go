package console

import (
	"strings"

	"github.com/futig/rag-console/internal/entity"
	pkghttp "github.com/futig/rag-console/pkg/http"
	"github.com/spf13/cobra"
)

func (c *Console) chatCommand() *cobra.Command {
	var (
		stream bool
		model  string
	)

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &entity.ChatRequest{
				Model:    model,
				Messages: []entity.ChatMessage{{Role: entity.RoleUser, Content: strings.Join(args, " ")}},
			}

			if stream {
				err := c.api.Stream(cmd.Context(), "/v1/chat/streams", func(chunk string) error {
					c.printer.Write(chunk)
					return nil
				}, pkghttp.WithJSON(req))
				c.printer.Line("")
				return err
			}

			var completion entity.ChatCompletion
			if err := c.api.Post(cmd.Context(), "/v1/chat/completions", &completion, pkghttp.WithJSON(req)); err != nil {
				return err
			}
			for _, choice := range completion.Choices {
				c.printer.Line("%s", choice.Message.Content)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&stream, "stream", false, "print the answer as it is generated")
	cmd.Flags().StringVar(&model, "model", "", "override the chat model for this question")

	return cmd
}

func (c *Console) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the chat history",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the chat history",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				var res entity.ChatHistoryResponse
				if err := c.api.Get(cmd.Context(), "/v1/chat/history", &res); err != nil {
					return err
				}
				if len(res.Messages) == 0 {
					c.printer.Line("No chat history.")
					return nil
				}
				for _, m := range res.Messages {
					c.printer.Label("%s:", m.Role)
					c.printer.Line("%s\n", m.Content)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget the chat history",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.api.Delete(cmd.Context(), "/v1/chat/history")
			},
		},
	)

	return cmd
}
