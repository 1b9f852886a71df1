package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jcrq/internal/parser"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Syntax string
}

// ParseOutput is the parse command's result.
type ParseOutput struct {
	Syntax     string `json:"syntax"`
	SourceType string `json:"source_type"`
	Tree       string `json:"tree"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a query and print its tree",
		Long: `Parse a query without a type configuration and print the query tree.

Both syntaxes produce the same tree for equivalent queries.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Syntax, "syntax", SyntaxAuto, "query syntax (auto|sql|xpath)")

	return cmd
}

func runParse(opts *ParseOptions, query string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	syntax, err := resolveSyntax(opts.Syntax, query)
	if err != nil {
		code, message := compileErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, errorDetails(err))
	}

	q, err := parser.Parse(syntax, query)
	if err != nil {
		code, message := compileErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, errorDetails(err))
	}

	out := ParseOutput{
		Syntax:     string(syntax),
		SourceType: q.SourceType,
		Tree:       q.String(),
	}
	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintf(formatter.Writer, "%s (%s)\n", out.Tree, out.Syntax)
	return nil
}
