package godog_test

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"epublint/pkg/report"
	"epublint/pkg/validate"
)

// testdataRoot walks up from the working directory to the module root and
// returns its testdata directory.
func testdataRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "testdata")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root (no go.mod)")
		}
		dir = parent
	}
}

func TestFeatures(t *testing.T) {
	root := testdataRoot(t)

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			initializeScenario(ctx, filepath.Join(root, "fixtures"))
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{filepath.Join(root, "features")},
			TestingT: t,
		},
	}

	suite.Run()
}

// scenarioState holds per-scenario state for step definitions.
type scenarioState struct {
	fixturesDir string
	basePath    string
	result      *report.Report

	// asserted tracks message indices already matched by an assertion
	// step, so "no other errors or warnings" only counts the rest.
	asserted map[int]bool
}

func (s *scenarioState) markAsserted(i int) {
	if s.asserted == nil {
		s.asserted = make(map[int]bool)
	}
	s.asserted[i] = true
}

// zipFixtureDir packages an unpackaged EPUB directory into a temporary
// .epub file, writing mimetype first and stored.
func zipFixtureDir(dir string) (string, error) {
	tmp, err := os.CreateTemp("", "epublint-test-*.epub")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer tmp.Close()

	w := zip.NewWriter(tmp)
	defer w.Close()

	if data, err := os.ReadFile(filepath.Join(dir, "mimetype")); err == nil {
		mw, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
		if err != nil {
			return "", fmt.Errorf("writing mimetype: %w", err)
		}
		if _, err := mw.Write(data); err != nil {
			return "", fmt.Errorf("writing mimetype data: %w", err)
		}
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "mimetype" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}
		fw, err := w.Create(rel)
		if err != nil {
			return fmt.Errorf("creating zip entry %s: %w", rel, err)
		}
		_, err = fw.Write(data)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("walking fixture dir: %w", err)
	}
	return tmp.Name(), nil
}

func initializeScenario(ctx *godog.ScenarioContext, fixturesDir string) {
	s := &scenarioState{fixturesDir: fixturesDir}

	ctx.Step(`^EPUB test files located at '([^']*)'$`, func(path string) error {
		s.basePath = strings.Trim(path, "/")
		return nil
	})

	ctx.Step(`^the checker with default settings$`, func() error {
		return nil
	})

	ctx.Step(`^checking EPUB '([^']*)'$`, func(name string) error {
		s.result = nil
		s.asserted = nil

		dir := filepath.Join(s.fixturesDir, filepath.FromSlash(s.basePath), name)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("fixture directory not found: %s", dir)
		}
		path, err := zipFixtureDir(dir)
		if err != nil {
			return err
		}
		defer os.Remove(path)

		rpt, err := validate.Validate(path)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		s.result = rpt
		return nil
	})

	severities := map[string]report.Severity{
		"fatal error": report.Fatal,
		"error":       report.Error,
		"warning":     report.Warning,
		"usage":       report.Usage,
		"info":        report.Info,
	}

	assertReported := func(kind, code string, n int) error {
		if s.result == nil {
			return fmt.Errorf("no validation result available")
		}
		sev, ok := severities[kind]
		if !ok {
			return fmt.Errorf("unknown severity %q", kind)
		}
		count := 0
		for i, m := range s.result.Messages {
			if m.Severity == sev && m.ID == code {
				count++
				s.markAsserted(i)
			}
		}
		if count != n {
			var got []string
			for _, m := range s.result.Messages {
				got = append(got, m.String())
			}
			return fmt.Errorf("expected %s %s reported %d time(s), got %d; messages:\n  %s",
				kind, code, n, count, strings.Join(got, "\n  "))
		}
		return nil
	}

	ctx.Step(`^(fatal error|error|warning|usage|info) ([A-Z]+-\d+\w*) is reported$`, func(kind, code string) error {
		return assertReported(kind, code, 1)
	})
	ctx.Step(`^(fatal error|error|warning|usage|info) ([A-Z]+-\d+\w*) is reported (\d+) times$`, func(kind, code string, n int) error {
		return assertReported(kind, code, n)
	})

	ctx.Step(`^no (?:other )?errors or warnings are reported$`, func() error {
		if s.result == nil {
			return fmt.Errorf("no validation result available")
		}
		var issues []string
		for i, m := range s.result.Messages {
			if s.asserted[i] {
				continue
			}
			switch m.Severity {
			case report.Fatal, report.Error, report.Warning:
				issues = append(issues, m.String())
			}
		}
		if len(issues) > 0 {
			return fmt.Errorf("unexpected errors or warnings:\n  %s", strings.Join(issues, "\n  "))
		}
		return nil
	})

	ctx.Step(`^the publication is reported as valid$`, func() error {
		if s.result == nil {
			return fmt.Errorf("no validation result available")
		}
		if !s.result.IsValid() {
			var got []string
			for _, m := range s.result.Messages {
				got = append(got, m.String())
			}
			return fmt.Errorf("publication reported invalid:\n  %s", strings.Join(got, "\n  "))
		}
		return nil
	})

	ctx.Step(`^the publication is reported as invalid$`, func() error {
		if s.result == nil {
			return fmt.Errorf("no validation result available")
		}
		if s.result.IsValid() {
			return fmt.Errorf("publication unexpectedly reported valid")
		}
		return nil
	})
}
