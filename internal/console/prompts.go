package console

import (
	"errors"
	"net/url"
	"os"
	"strings"

	"github.com/futig/rag-console/internal/entity"
	pkghttp "github.com/futig/rag-console/pkg/http"
	"github.com/spf13/cobra"
)

func promptEndpoint(category, name string) string {
	return "/v1/prompts/" + url.PathEscape(category) + "/" + url.PathEscape(name)
}

func (c *Console) promptsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Browse and edit system and context prompts",
	}

	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []pkghttp.RequestOpt
			if category != "" {
				opts = append(opts, pkghttp.WithParam("category", category))
			}

			var res entity.ListPromptsResponse
			if err := c.api.Get(cmd.Context(), "/v1/prompts", &res, opts...); err != nil {
				return err
			}
			if len(res.Prompts) == 0 {
				c.printer.Line("No prompts.")
				return nil
			}
			for _, p := range res.Prompts {
				c.printer.Line("%-4s %-24s %s", p.Category, p.Name, firstLine(p.Prompt, 60))
			}
			return nil
		},
	}
	list.Flags().StringVar(&category, "category", "", "only list sys or ctx prompts")

	show := &cobra.Command{
		Use:   "show <category> <name>",
		Short: "Print one prompt",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p entity.Prompt
			if err := c.api.Get(cmd.Context(), promptEndpoint(args[0], args[1]), &p); err != nil {
				return err
			}
			c.printer.Label("%s (%s)", p.Name, p.Category)
			c.printer.Line("%s", p.Prompt)
			return nil
		},
	}

	var text, file string
	edit := &cobra.Command{
		Use:   "edit <category> <name>",
		Short: "Replace a prompt's text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := text
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				body = string(raw)
			}
			if strings.TrimSpace(body) == "" {
				return errors.New("prompt text is empty: use --text or --file")
			}

			return c.api.Patch(cmd.Context(), promptEndpoint(args[0], args[1]),
				pkghttp.WithJSON(&entity.PromptUpdateRequest{Prompt: body}))
		},
	}
	edit.Flags().StringVar(&text, "text", "", "new prompt text")
	edit.Flags().StringVar(&file, "file", "", "read the new prompt text from a file")
	edit.MarkFlagsMutuallyExclusive("text", "file")

	cmd.AddCommand(list, show, edit)
	return cmd
}

// firstLine shortens s to its first line, at most n runes.
func firstLine(s string, n int) string {
	s, _, cut := strings.Cut(strings.TrimSpace(s), "\n")
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-1]) + "…"
	}
	if cut {
		return s + " …"
	}
	return s
}
