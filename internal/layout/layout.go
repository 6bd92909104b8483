// Package layout names the directories and files a salesheet project keeps
// under its base directory.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	SampleDataDir     = "sample_data"
	TemplatesDir      = "excel_templates"
	VisualizationsDir = "visualizations"
)

type Layout struct {
	Base string
}

func New(base string) Layout {
	if base == "" {
		base = "."
	}
	return Layout{Base: base}
}

func (l Layout) path(parts ...string) string {
	return filepath.Join(append([]string{l.Base}, parts...)...)
}

func (l Layout) SampleData() string     { return l.path(SampleDataDir) }
func (l Layout) Templates() string      { return l.path(TemplatesDir) }
func (l Layout) Visualizations() string { return l.path(VisualizationsDir) }

func (l Layout) TemplateFile() string {
	return l.path(TemplatesDir, "daily_sales_sheet.xlsx")
}

func (l Layout) SampleFile() string {
	return l.path(SampleDataDir, "sample_sales_data.xlsx")
}

func (l Layout) ImportedFile() string {
	return l.path(SampleDataDir, "imported_sales_data.xlsx")
}

// SQLiteFile is the default location of the SQLite export.
func (l Layout) SQLiteFile() string {
	return l.path(SampleDataDir, "sales.db")
}

// EnsureDirs creates the project directories.
func (l Layout) EnsureDirs() error {
	for _, d := range []string{l.SampleData(), l.Templates(), l.Visualizations()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}

// Artifact is one expected project output.
type Artifact struct {
	Name    string
	Path    string
	Hint    string // how to produce it
	Present bool
}

type Status struct {
	Artifacts []Artifact
	Created   int
	Total     int
}

// Percent is the share of present artifacts, rounded to a whole number.
func (s Status) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return (s.Created*200 + s.Total) / (2 * s.Total)
}

// NextSteps suggests what to run given how much of the project exists.
func (s Status) NextSteps() []string {
	switch {
	case s.Created == 0:
		return []string{
			"Run `salesheet setup` to create everything",
			"Begin entering your sales data",
		}
	case s.Created < 3:
		return []string{
			"Create the Excel template first",
			"Generate sample data to see examples",
			"Run analysis to see charts",
		}
	default:
		return []string{
			"Most files are ready",
			"Start entering your own sales data",
			"Re-run analysis with new data",
		}
	}
}

// Status checks which expected artifacts exist.
func (l Layout) Status(chartIDs []string, reportFile string) (Status, error) {
	arts := []Artifact{
		{Name: "Excel Template", Path: l.TemplateFile(), Hint: "salesheet template"},
		{Name: "Sample Data", Path: l.SampleFile(), Hint: "salesheet generate"},
	}
	for _, id := range chartIDs {
		arts = append(arts, Artifact{Name: "Chart " + id, Path: l.path(VisualizationsDir, id+".png"), Hint: "salesheet analyze"})
	}
	arts = append(arts, Artifact{Name: "Analysis Report", Path: l.path(VisualizationsDir, reportFile), Hint: "salesheet analyze"})

	st := Status{Total: len(arts)}
	for i := range arts {
		_, err := os.Stat(arts[i].Path)
		switch {
		case err == nil:
			arts[i].Present = true
			st.Created++
		case !errors.Is(err, os.ErrNotExist):
			return Status{}, fmt.Errorf("stat %s: %w", arts[i].Path, err)
		}
	}
	st.Artifacts = arts
	return st, nil
}
