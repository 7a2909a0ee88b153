package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bqestimator/services"
	"bqestimator/testhelpers"
)

func defaults() (services.EstimatorOptions, error) {
	return services.DefaultEstimatorOptions(), nil
}

func TestExportCommand_WritesFile(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "CLI Project")
	s := testhelpers.CreateTestStructure(t, app, proj.Id, "Substructure", 1)
	e := testhelpers.CreateTestElement(t, app, proj.Id, s.Id, "Excavation", 1)
	testhelpers.CreateTestItem(t, app, proj.Id, e.Id, "Bulk dig", 1, 10, 5)

	tests := []struct {
		name   string
		args   []string
		file   string
		prefix string
	}{
		{"xlsx", []string{"--cols", "all"}, "out/estimate.xlsx", "PK"},
		{"pdf", []string{"--format", "pdf", "--search", "bulk", "--status", "draft"}, "estimate.pdf", "%PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			cmd := NewExportCommand(app, defaults)
			var stdout bytes.Buffer
			cmd.SetOut(&stdout)
			cmd.SetArgs(append([]string{proj.Id, "--out", path}, tt.args...))

			if err := cmd.ExecuteContext(context.Background()); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			b, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("output not written: %v", err)
			}
			if !bytes.HasPrefix(b, []byte(tt.prefix)) {
				t.Errorf("output does not start with %q", tt.prefix)
			}
			if !strings.Contains(stdout.String(), "Wrote "+path) {
				t.Errorf("stdout = %q", stdout.String())
			}
		})
	}
}

func TestExportCommand_Errors(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "CLI Errors Project")
	out := filepath.Join(t.TempDir(), "x.bin")

	tests := []struct {
		name string
		args []string
		load OptionsLoader
		want error
	}{
		{"unknown project", []string{"missing", "--out", out}, defaults, services.ErrProjectNotFound},
		{"unknown format", []string{proj.Id, "--format", "docx", "--out", out}, defaults, services.ErrUnsupportedFormat},
		{"bad config", []string{proj.Id, "--out", out}, func() (services.EstimatorOptions, error) {
			return services.EstimatorOptions{}, errBadConfig
		}, errBadConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewExportCommand(app, tt.load)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)
			if err := cmd.ExecuteContext(context.Background()); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	cmd := NewExportCommand(app, defaults)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{proj.Id, "--cols", "colour", "--out", out})
	if err := cmd.ExecuteContext(context.Background()); err == nil || !strings.Contains(err.Error(), "unknown column") {
		t.Errorf("err = %v, want unknown column", err)
	}
}

var errBadConfig = errors.New("bad config")
