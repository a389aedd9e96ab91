package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/loader"
	"github.com/goliatone/go-formdesigner/pkg/render"
	"github.com/goliatone/go-formdesigner/pkg/renderers/html"
	"github.com/goliatone/go-formdesigner/pkg/renderers/tui"
)

func newPreviewCommand(app *App) *cobra.Command {
	var (
		mode         string
		rendererName string
		themeName    string
		themeVariant string
		action       string
		valuesPath   string
		output       string
	)
	cmd := &cobra.Command{
		Use:   "preview <document>",
		Short: "Render a document (HTML unless --renderer says otherwise)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := designer.Mode(mode)
			if !m.Valid() {
				return fmt.Errorf("unknown mode %q (want design or preview)", mode)
			}
			doc, err := loader.LoadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			values, err := readValues(valuesPath)
			if err != nil {
				return err
			}
			renderers, err := newRendererRegistry(app, rendererSettings{themeName: themeName, themeVariant: themeVariant})
			if err != nil {
				return err
			}
			out, _, err := renderers.Render(cmd.Context(), rendererName, designer.DesignerState{Schema: doc, Mode: m}, render.RenderOptions{
				Values: values,
				Action: action,
				Hidden: render.MergeHiddenFields(nil, render.VersionField(doc.SchemaVersion)),
			})
			if err != nil {
				return err
			}
			return writeOutput(app, output, out)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(designer.ModePreview), "design or preview")
	cmd.Flags().StringVar(&rendererName, "renderer", html.Name, "renderer to use: "+html.Name+" or "+tui.Name)
	cmd.Flags().StringVar(&themeName, "theme", "", "theme name (built-in: "+html.DefaultThemeName+")")
	cmd.Flags().StringVar(&themeVariant, "variant", "", "theme variant, e.g. dark")
	cmd.Flags().StringVar(&action, "action", "", "form action URL")
	cmd.Flags().StringVar(&valuesPath, "values", "", "JSON or YAML file pre-populating the preview")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

func newFillCommand(app *App) *cobra.Command {
	var (
		format     string
		valuesPath string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "fill <document>",
		Short: "Fill a document interactively in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loader.LoadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			values, err := readValues(valuesPath)
			if err != nil {
				return err
			}
			renderers, err := newRendererRegistry(app, rendererSettings{format: tui.OutputFormat(format)})
			if err != nil {
				return err
			}
			out, _, err := renderers.Render(cmd.Context(), tui.Name, designer.DesignerState{Schema: doc, Mode: designer.ModePreview}, render.RenderOptions{Values: values})
			if err != nil {
				return err
			}
			return writeOutput(app, output, out)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(tui.OutputFormatJSON), "output format: json, form or pretty")
	cmd.Flags().StringVar(&valuesPath, "values", "", "JSON or YAML file of initial answers")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

type rendererSettings struct {
	themeName    string
	themeVariant string
	format       tui.OutputFormat
}

// newRendererRegistry offers every output the CLI can produce, html first.
func newRendererRegistry(app *App, settings rendererSettings) (*render.Registry, error) {
	htmlRenderer, err := html.New(html.WithThemeSelector(html.NewManifestSelector(html.DefaultManifest()), settings.themeName, settings.themeVariant))
	if err != nil {
		return nil, err
	}
	driver := app.Driver
	if driver == nil {
		driver = tui.NewSurveyDriver(app.Err)
	}
	tuiRenderer, err := tui.New(
		tui.WithPromptDriver(driver),
		tui.WithOutputFormat(settings.format),
	)
	if err != nil {
		return nil, err
	}
	return render.NewRegistry(htmlRenderer, tuiRenderer)
}

func readValues(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	return parseValues(raw)
}

// parseValues decodes a JSON object, falling back to YAML.
func parseValues(raw []byte) (map[string]any, error) {
	values := map[string]any{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(trimmed, &values); err == nil {
		return values, nil
	}
	values = map[string]any{}
	if err := yaml.Unmarshal(trimmed, &values); err != nil {
		return nil, fmt.Errorf("values must be a JSON or YAML object: %w", err)
	}
	return values, nil
}
