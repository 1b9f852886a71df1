package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jcrq/internal/store"
)

// IndexOptions holds flags for the index command.
type IndexOptions struct {
	*RootOptions
	DB string
}

// IndexResult is the index command's result.
type IndexResult struct {
	DB       string         `json:"db"`
	Imported int            `json:"imported"`
	Total    int            `json:"total"`
	Folders  []store.Folder `json:"folders,omitempty"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "index <folders.yaml>",
		Short: "Build the folder index",
		Long: `Import a YAML folder fixture into a SQLite folder index.

The index is created if missing; folders are inserted or updated by id.
Parents must be part of the fixture or already indexed.

Examples:
  jcrq index folders.yaml --db folders.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "folders.db", "path to SQLite folder index")

	return cmd
}

func runIndex(ctx context.Context, opts *IndexOptions, fixture string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	folders, err := store.LoadFolderFile(fixture)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
	}

	st, err := store.Open(ctx, opts.DB)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	if err := st.ImportFolders(ctx, folders); err != nil {
		code := ErrCodeWriteFailed
		if errors.Is(err, store.ErrParentMissing) {
			code = ErrCodeReadFailed
		}
		return formatter.Fail(ExitCommandError, code, err.Error(), nil)
	}

	all, err := st.ListFolders(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	result := IndexResult{DB: opts.DB, Imported: len(folders), Total: len(all)}
	if opts.Verbose {
		result.Folders = all
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Indexed %d folder(s) into %s (%d total)\n", result.Imported, result.DB, result.Total)
	for _, f := range result.Folders {
		fmt.Fprintf(formatter.Writer, "  %d %s\n", f.ID, f.Path)
	}
	return nil
}
