package console

import (
	"encoding/json"
	"fmt"

	"github.com/futig/rag-console/internal/entity"
	pkghttp "github.com/futig/rag-console/pkg/http"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const settingsEndpoint = "/v1/settings"

func (c *Console) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change the client's settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the current settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				var s entity.Settings
				if err := c.api.Get(cmd.Context(), settingsEndpoint, &s); err != nil {
					return err
				}
				return c.printer.JSON(&s)
			},
		},
		&cobra.Command{
			Use:   "create",
			Short: "Create settings for the client from the defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				var s entity.Settings
				if err := c.api.Post(cmd.Context(), settingsEndpoint, &s); err != nil {
					return err
				}
				c.printer.Success(fmt.Sprintf("Settings created for client %s.", s.Client))
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-model <model>",
			Short: "Select the chat model",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.patchSettings(cmd, "ll_model.model", args[0])
			},
		},
		&cobra.Command{
			Use:   "toggle-history",
			Short: "Switch chat history on or off",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				var s entity.Settings
				if err := c.api.Get(cmd.Context(), settingsEndpoint, &s); err != nil {
					return err
				}
				enabled := !s.LLModel.ChatHistory
				if err := c.patchSettings(cmd, "ll_model.chat_history", enabled); err != nil {
					return err
				}
				c.printer.Line("Chat history is now %s.", onOff(enabled))
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <path> <value>",
			Short: "Set any field, e.g. `set vector_search.top_k 6`",
			Long: "Set a settings field by its dotted JSON path. The value is sent as JSON " +
				"when it parses as JSON (numbers, booleans) and as a string otherwise.",
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				var value any = args[1]
				if gjson.Valid(args[1]) {
					value = json.RawMessage(args[1])
				}
				return c.patchSettings(cmd, args[0], value)
			},
		},
	)

	return cmd
}

// patchSettings sends a settings patch that touches only path.
func (c *Console) patchSettings(cmd *cobra.Command, path string, value any) error {
	var (
		body []byte
		err  error
	)
	if raw, ok := value.(json.RawMessage); ok {
		body, err = sjson.SetRawBytes([]byte(`{}`), path, raw)
	} else {
		body, err = sjson.SetBytes([]byte(`{}`), path, value)
	}
	if err != nil {
		return fmt.Errorf("invalid settings path %q: %w", path, err)
	}

	return c.api.Patch(cmd.Context(), settingsEndpoint, pkghttp.WithJSON(json.RawMessage(body)))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
