package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/jcrq/internal/typeconf"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool               `json:"valid"`
	Dialect string             `json:"dialect,omitempty"`
	Types   []TypeSummary      `json:"types,omitempty"`
	Errors  []ValidationDetail `json:"errors,omitempty"`
}

// TypeSummary describes one configured content type.
type TypeSummary struct {
	Name       string   `json:"name"`
	ID         int64    `json:"id"`
	Properties []string `json:"properties"`
}

// ValidationDetail is one type configuration problem.
type ValidationDetail struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <types>",
		Short: "Validate a type configuration",
		Long: `Load a CUE type configuration and report every problem with its position:
unknown dialect, missing system columns, duplicate table aliases,
duplicate content type ids and properties on unknown tables.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	catalog, err := typeconf.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
		}
		return outputValidationErrors(formatter, validationDetails(err))
	}

	result := ValidationResult{Valid: true, Dialect: string(catalog.Dialect)}
	for _, name := range catalog.TypeNames() {
		view, _ := catalog.ForType(name)
		formatter.VerboseLog("Validated content type: %s", name)
		result.Types = append(result.Types, TypeSummary{
			Name:       name,
			ID:         catalog.Types[name].ID,
			Properties: view.Properties(),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Type configuration is valid (%s dialect)\n\n", result.Dialect)
	for _, t := range result.Types {
		fmt.Fprintf(w, "  %s (id %d): %d propert%s\n", t.Name, t.ID, len(t.Properties), plural(len(t.Properties), "y", "ies"))
	}
	return nil
}

// validationDetails flattens a load error into problems.
func validationDetails(err error) []ValidationDetail {
	problems := typeconf.ConfigErrors(err)
	if len(problems) == 0 {
		return []ValidationDetail{{Code: ErrCodeGeneric, Field: "load", Message: err.Error()}}
	}

	details := make([]ValidationDetail, len(problems))
	for i, p := range problems {
		details[i] = ValidationDetail{Code: ErrCodeConfig, Field: p.Field, Message: p.Message}
		if p.Pos.IsValid() {
			details[i].File = p.Pos.Filename()
			details[i].Line = p.Pos.Line()
			details[i].Column = p.Pos.Column()
		}
	}
	return details
}

func outputValidationErrors(formatter *OutputFormatter, details []ValidationDetail) error {
	if formatter.Format == "json" {
		_ = formatter.Success(ValidationResult{Valid: false, Errors: details})
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(details)))
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, d := range details {
		if d.Line > 0 {
			fmt.Fprintf(w, "%s:%d:%d\n", d.File, d.Line, d.Column)
		}
		fmt.Fprintf(w, "  %s: %s: %s\n\n", d.Code, d.Field, d.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(details)))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
