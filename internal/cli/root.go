// Package cli implements the formdesigner command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formdesigner/pkg/renderers/tui"
)

// App carries the streams and collaborators shared by every command.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
	// Driver answers the prompts of the fill command. Nil uses survey.
	Driver tui.PromptDriver
}

func (a *App) defaults() {
	if a.In == nil {
		a.In = os.Stdin
	}
	if a.Out == nil {
		a.Out = os.Stdout
	}
	if a.Err == nil {
		a.Err = os.Stderr
	}
}

var (
	okMark   = color.New(color.FgGreen, color.Bold).SprintFunc()
	failMark = color.New(color.FgRed, color.Bold).SprintFunc()
	dim      = color.New(color.Faint).SprintFunc()
)

// NewRootCommand builds the command tree.
func NewRootCommand(app *App) *cobra.Command {
	if app == nil {
		app = &App{}
	}
	app.defaults()

	root := &cobra.Command{
		Use:           "formdesigner",
		Short:         "Design, validate and serve form documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(app.In)
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	root.AddCommand(
		newNewCommand(app),
		newApplyCommand(app),
		newValidateCommand(app),
		newExportCommand(app),
		newPreviewCommand(app),
		newFillCommand(app),
		newServeCommand(app),
	)
	return root
}

// Execute runs the root command and prints a failure in red.
func Execute(app *App) int {
	if app == nil {
		app = &App{}
	}
	app.defaults()
	if err := NewRootCommand(app).Execute(); err != nil {
		fmt.Fprintf(app.Err, "%s %v\n", failMark("error:"), err)
		return 1
	}
	return 0
}

// writeOutput writes data to path, or to the command output when path is
// empty.
func writeOutput(app *App, path string, data []byte) error {
	if path == "" {
		_, err := app.Out.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(app.Err, "%s wrote %s\n", okMark("✓"), path)
	return nil
}
