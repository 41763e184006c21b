package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/domsync/internal/config"
	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/dom"
)

// writeFile creates name under dir with content and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runSyncFiles(t *testing.T, host, cand string, opts syncOptions) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	opts.host = writeFile(t, dir, "host.html", host)
	opts.candidate = writeFile(t, dir, "cand.html", cand)
	if opts.logLevel == "" {
		opts.logLevel = "error"
	}

	var stdout, stderr bytes.Buffer
	err := runSync(t.Context(), opts, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestSyncDocument(t *testing.T) {
	cand := `<html><head><title>t</title></head><body><p>new</p><p>two</p></body></html>`
	out, _, err := runSyncFiles(t, `<html><head></head><body><p>old</p></body></html>`, cand, syncOptions{})
	if err != nil {
		t.Fatalf("runSync() error = %v", err)
	}

	want, err := dom.ParseString(cand)
	if err != nil {
		t.Fatal(err)
	}
	if out != dom.String(want) {
		t.Errorf("output = %q, want %q", out, dom.String(want))
	}
}

func TestSyncFragment(t *testing.T) {
	out, stderr, err := runSyncFiles(t,
		`<ul><li>a</li></ul>`,
		`<ul><li>a</li><li>b</li></ul>`,
		syncOptions{fragment: true, stats: true},
	)
	if err != nil {
		t.Fatalf("runSync() error = %v", err)
	}
	if want := `<ul><li>a</li><li>b</li></ul>`; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
	if !strings.Contains(stderr, `"inserted": 1`) {
		t.Errorf("stats = %q, want one insertion", stderr)
	}
}

func TestSyncBetween(t *testing.T) {
	out, _, err := runSyncFiles(t,
		`<body><p>keep</p><!--s--><i>x</i><!--e--><p>tail</p></body>`,
		`<b>y</b>`,
		syncOptions{between: []string{"s", "e"}},
	)
	if err != nil {
		t.Fatalf("runSync() error = %v", err)
	}
	want := `<html><head></head><body><p>keep</p><!--s--><b>y</b><!--e--><p>tail</p></body></html>`
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestSyncBetweenArity(t *testing.T) {
	_, _, err := runSyncFiles(t, `<p></p>`, `<p></p>`, syncOptions{between: []string{"s"}})
	if err == nil {
		t.Fatal("expected an error for a single --between value")
	}
}

func TestSyncIslands(t *testing.T) {
	island := `<!--island:{"id":"c1"}-->`
	out, _, err := runSyncFiles(t,
		island+`<p>live</p>`+island+`<p>a</p>`,
		island+`<p>stale</p>`+island+`<p>b</p>`,
		syncOptions{fragment: true, islands: true, prefix: config.DefaultMarkerPrefix},
	)
	if err != nil {
		t.Fatalf("runSync() error = %v", err)
	}
	if !strings.Contains(out, "<p>live</p>") || strings.Contains(out, "stale") {
		t.Errorf("island content changed: %q", out)
	}
	if !strings.HasSuffix(out, "<p>b</p>") {
		t.Errorf("output = %q, want trailing <p>b</p>", out)
	}
}

func TestSyncErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		opts := syncOptions{
			host:      filepath.Join(t.TempDir(), "nope.html"),
			candidate: filepath.Join(t.TempDir(), "nope.html"),
			logLevel:  "error",
		}
		err := runSync(t.Context(), opts, &bytes.Buffer{}, &bytes.Buffer{})
		if got := errors.Code(err); got != "D040" {
			t.Errorf("code = %q, want D040", got)
		}
	})

	t.Run("missing marker", func(t *testing.T) {
		_, _, err := runSyncFiles(t, `<p>x</p><!--s-->`, `<b></b>`, syncOptions{between: []string{"s", "e"}})
		if got := errors.Code(err); got != "D042" {
			t.Errorf("code = %q, want D042", got)
		}
	})

	t.Run("bad log level", func(t *testing.T) {
		_, _, err := runSyncFiles(t, `<p></p>`, `<p></p>`, syncOptions{logLevel: "loud"})
		if got := errors.Code(err); got != "D022" {
			t.Errorf("code = %q, want D022", got)
		}
	})
}

func TestSyncMinifyToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.html")
	stdout, _, err := runSyncFiles(t,
		"<ul>\n  <li>a</li>\n</ul>",
		"<ul>\n  <li>a</li>\n  <li>b</li>\n</ul>",
		syncOptions{fragment: true, minify: true, out: out},
	)
	if err != nil {
		t.Fatalf("runSync() error = %v", err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing when --out is set", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "\n") || !strings.Contains(string(data), "<li>b</li>") {
		t.Errorf("minified output = %q", data)
	}
}

func TestVersionShort(t *testing.T) {
	cmd := versionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != version+"\n" {
		t.Errorf("version --short = %q, want %q", got, version+"\n")
	}
}

func TestLoadServeConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadServeConfig(serveOptions{configDir: t.TempDir(), port: 9090})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Server.Port != 9090 {
			t.Errorf("Port = %d, want 9090", cfg.Server.Port)
		}
		if cfg.DocumentPath() != "" {
			t.Errorf("DocumentPath() = %q, want empty", cfg.DocumentPath())
		}
	})

	t.Run("yaml file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, config.YAMLConfigFileName, "server:\n  port: 9000\n  document: page.html\n")

		cfg, err := loadServeConfig(serveOptions{configDir: dir})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Server.Port != 9000 {
			t.Errorf("Port = %d, want 9000", cfg.Server.Port)
		}
		if want := filepath.Join(dir, "page.html"); cfg.DocumentPath() != want {
			t.Errorf("DocumentPath() = %q, want %q", cfg.DocumentPath(), want)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := loadServeConfig(serveOptions{configDir: t.TempDir(), port: 70000})
		if got := errors.Code(err); got != "D022" {
			t.Errorf("code = %q, want D022", got)
		}
	})
}

func TestPreviewOptions(t *testing.T) {
	cfg := config.New()
	cfg.Tracing.Enabled = true

	opts := previewOptions(cfg, false)
	if opts.Markers == nil {
		t.Error("Markers = nil, want island markers")
	}
	if len(opts.Middleware) != 2 {
		t.Errorf("len(Middleware) = %d, want 2", len(opts.Middleware))
	}

	cfg.Markers.Islands = false
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = false
	opts = previewOptions(cfg, true)
	if opts.Markers != nil || len(opts.Middleware) != 0 || !opts.Minify {
		t.Errorf("previewOptions() = %+v", opts)
	}
}
