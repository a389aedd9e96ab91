package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/export"
	"github.com/goliatone/go-formdesigner/pkg/loader"
	"github.com/goliatone/go-formdesigner/pkg/schema"
)

// errInvalid is returned by validate when at least one document fails.
var errInvalid = errors.New("invalid documents")

func newNewCommand(app *App) *cobra.Command {
	var (
		title  string
		fields []string
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a document with default fields",
		Example: `  formdesigner new --title Signup --field input --field checkbox
  formdesigner new --field select --format yaml -o signup.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			store := designer.New()
			if strings.TrimSpace(title) != "" {
				store.Dispatch(designer.UpdateForm{Patch: designer.FormPatch{Title: designer.String(title)}})
			}
			for _, raw := range fields {
				if _, _, err := store.AddDefaultField(schema.FieldType(strings.TrimSpace(raw))); err != nil {
					return err
				}
			}
			data, err := export.Encode(store.Schema(), f)
			if err != nil {
				return err
			}
			return writeOutput(app, output, data)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "form title")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "field type to append, repeatable ("+typeList()+")")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml or openapi")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

func newApplyCommand(app *App) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "apply <document> <commands>",
		Short: "Apply command envelopes to a document",
		Long: `Apply reads a JSON file holding one command envelope or an array of them,
for example {"type":"MOVE_FIELD","activeId":"a","overId":"b"}, applies them in
order and prints the resulting document.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			doc, err := loader.LoadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read commands: %w", err)
			}
			cmds, err := designer.DecodeCommands(raw)
			if err != nil {
				return err
			}
			state := designer.New(designer.WithSchema(doc)).Dispatch(cmds...)
			data, err := export.Encode(state.Schema, f)
			if err != nil {
				return err
			}
			return writeOutput(app, output, data)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml or openapi")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

func newValidateCommand(app *App) *cobra.Command {
	var submission string
	cmd := &cobra.Command{
		Use:   "validate <document>...",
		Short: "Check documents for semantic errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var values map[string]any
			if submission != "" {
				raw, err := os.ReadFile(submission)
				if err != nil {
					return fmt.Errorf("read submission: %w", err)
				}
				parsed, err := parseValues(raw)
				if err != nil {
					return err
				}
				values = parsed
			}

			failed := 0
			for _, path := range args {
				doc, err := loader.LoadFile(cmd.Context(), path)
				if err != nil {
					failed++
					fmt.Fprintf(app.Out, "%s %s\n    %v\n", failMark("✗"), path, err)
					continue
				}
				messages := schema.Validate(doc)
				if values != nil {
					for _, msg := range export.ValidateSubmission(cmd.Context(), doc, values) {
						messages = append(messages, "submission: "+msg)
					}
				}
				if len(messages) == 0 {
					fmt.Fprintf(app.Out, "%s %s %s\n", okMark("✓"), path, dim(fmt.Sprintf("(%d fields)", len(doc.Fields))))
					continue
				}
				failed++
				fmt.Fprintf(app.Out, "%s %s\n", failMark("✗"), path)
				for _, msg := range messages {
					fmt.Fprintf(app.Out, "    %s\n", msg)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errInvalid, failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&submission, "submission", "", "JSON or YAML file of values to check against each document")
	return cmd
}

func newExportCommand(app *App) *cobra.Command {
	var (
		format string
		output string
		dir    string
	)
	cmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Re-encode a document as JSON, YAML or an OpenAPI schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			doc, err := loader.LoadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if f == export.FormatOpenAPI {
				if err := export.ValidateDocumentSchema(cmd.Context(), doc); err != nil {
					return err
				}
			}
			data, err := export.Encode(doc, f)
			if err != nil {
				return err
			}
			if output == "" && dir != "" {
				output = filepath.Join(dir, export.Filename(doc.Title, time.Now(), f))
			}
			return writeOutput(app, output, data)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml or openapi")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&dir, "dir", "", "write into this directory using a title and timestamp file name")
	return cmd
}

func typeList() string {
	types := schema.FieldTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
