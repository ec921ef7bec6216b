package console

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/futig/rag-console/internal/entity"
	pkghttp "github.com/futig/rag-console/pkg/http"
	"github.com/spf13/cobra"
)

func databaseEndpoint(name string, rest ...string) string {
	endpoint := "/v1/databases/" + url.PathEscape(name)
	for _, r := range rest {
		endpoint += "/" + url.PathEscape(r)
	}
	return endpoint
}

func (c *Console) databasesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "databases",
		Aliases: []string{"db"},
		Short:   "Manage vector database connections",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List database connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res entity.ListDatabasesResponse
			if err := c.api.Get(cmd.Context(), "/v1/databases", &res); err != nil {
				return err
			}
			for _, db := range res.Databases {
				status := "unreachable"
				if db.Connected {
					status = "connected"
				}
				c.printer.Line("%-16s %-12s %s", db.Name, status, db.DSN)
			}
			return nil
		},
	}

	var req entity.DatabaseUpdateRequest
	configure := &cobra.Command{
		Use:   "configure <name>",
		Short: "Set a connection; the server tests it before saving",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.api.Patch(cmd.Context(), databaseEndpoint(args[0]), pkghttp.WithJSON(&req))
		},
	}
	configure.Flags().StringVar(&req.DSN, "dsn", "", "postgres connection string")
	configure.Flags().StringVar(&req.User, "user", "", "database user")
	configure.Flags().StringVar(&req.Password, "password", "", "database password (kept when empty)")
	_ = configure.MarkFlagRequired("dsn")

	cmd.AddCommand(list, configure)
	return cmd
}

func (c *Console) vectorStoresCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vector-stores",
		Aliases: []string{"vs"},
		Short:   "Inspect and drop vector stores",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <database>",
			Short: "List the vector stores of a database",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var res entity.ListVectorStoresResponse
				if err := c.api.Get(cmd.Context(), databaseEndpoint(args[0], "vector_stores"), &res); err != nil {
					return err
				}
				if len(res.VectorStores) == 0 {
					c.printer.Line("No vector stores in %s.", args[0])
					return nil
				}
				for _, vs := range res.VectorStores {
					c.printer.Label("%s", vs.Table)
					c.printer.Line("  alias=%s model=%s chunk=%d/%d metric=%s index=%s",
						vs.Alias, vs.Model, vs.ChunkSize, vs.ChunkOverlap, vs.DistanceMetric, vs.IndexType)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "drop <database> <table>",
			Short: "Drop a vector store",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.api.Delete(cmd.Context(), databaseEndpoint(args[0], "vector_stores", args[1]))
			},
		},
	)

	return cmd
}

func (c *Console) embedCommand() *cobra.Command {
	var vs entity.VectorStore

	cmd := &cobra.Command{
		Use:   "embed <database> <file>...",
		Short: "Chunk, embed and store documents (.txt, .md, .docx)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]pkghttp.File, 0, len(args)-1)
			for _, path := range args[1:] {
				content, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				files = append(files, pkghttp.File{Field: "files", Filename: filepath.Base(path), Content: content})
			}

			params := map[string]*string{
				"alias":           &vs.Alias,
				"model":           &vs.Model,
				"chunk_size":      ptr(strconv.Itoa(vs.ChunkSize)),
				"chunk_overlap":   ptr(strconv.Itoa(vs.ChunkOverlap)),
				"distance_metric": optional(vs.DistanceMetric),
				"index_type":      optional(vs.IndexType),
			}

			var res entity.EmbedResponse
			if err := c.api.Post(cmd.Context(), databaseEndpoint(args[0], "embed"), &res,
				pkghttp.WithFiles(files...),
				pkghttp.WithParams(params),
			); err != nil {
				return err
			}
			c.printer.Success(res.Message)
			c.printer.Line("vector store %s: %d files, %d chunks", res.VectorStore, res.Files, res.Chunks)
			return nil
		},
	}
	cmd.Flags().StringVar(&vs.Alias, "alias", "", "vector store alias")
	cmd.Flags().StringVar(&vs.Model, "model", "text-embedding-3-small", "embedding model")
	cmd.Flags().IntVar(&vs.ChunkSize, "chunk-size", 1000, "chunk size in characters")
	cmd.Flags().IntVar(&vs.ChunkOverlap, "chunk-overlap", 200, "overlap between chunks")
	cmd.Flags().StringVar(&vs.DistanceMetric, "metric", "", "COSINE, EUCLIDEAN_DISTANCE or DOT_PRODUCT")
	cmd.Flags().StringVar(&vs.IndexType, "index", "", "HNSW or IVFFLAT")
	_ = cmd.MarkFlagRequired("alias")

	return cmd
}

func ptr(s string) *string { return &s }

// optional leaves empty flags out of the query.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
