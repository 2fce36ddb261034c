package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/buildshortcut/shortcut/pkg/config"
	"github.com/buildshortcut/shortcut/pkg/oracle/oracletest"
)

func TestShortcutCmdFlags(t *testing.T) {
	cmd := newShortcutCmd(&globalOpts{}, streams{})
	f := cmd.Flags()

	output, _ := f.GetString("output")
	if output != "text" {
		t.Errorf("default output = %q, want text", output)
	}
	for _, flag := range []string{"projects", "verbose", "dry-run", "output", "report"} {
		if f.Lookup(flag) == nil {
			t.Errorf("missing flag: %s", flag)
		}
	}
	if f.Lookup("output").Shorthand != "" {
		t.Error("--output must not take -o, which belongs to the build tool")
	}
	if !cmd.DisableFlagParsing {
		t.Error("shortcut must parse its own flags to forward unknown ones")
	}
}

func TestRootPersistentFlags(t *testing.T) {
	root := newRootCmd(streams{})
	for _, flag := range []string{"config", "wsdl", "log-level", "log-format"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag: %s", flag)
		}
	}
	cmd, _, err := root.Find([]string{"s"})
	if err != nil || cmd.Name() != "shortcut" {
		t.Errorf("alias s resolved to %v, %v", cmd, err)
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		known       []string
		passthrough []string
	}{
		{
			name:        "goals only",
			args:        []string{"clean", "install"},
			passthrough: []string{"clean", "install"},
		},
		{
			name:        "known and unknown interleaved",
			args:        []string{"-v", "clean", "-DskipTests", "--projects", "a,b", "-o", "install"},
			known:       []string{"-v", "--projects", "a,b"},
			passthrough: []string{"clean", "-DskipTests", "-o", "install"},
		},
		{
			name:        "multi-letter short flags pass through",
			args:        []string{"-pl", "x", "-am", "-p", "svc"},
			known:       []string{"-p", "svc"},
			passthrough: []string{"-pl", "x", "-am"},
		},
		{
			name:        "inline values",
			args:        []string{"--output=json", "--projects=a", "-Dmaven.test.skip=true"},
			known:       []string{"--output=json", "--projects=a"},
			passthrough: []string{"-Dmaven.test.skip=true"},
		},
		{
			name:        "inherited flags",
			args:        []string{"--wsdl", "http://h/x?wsdl", "package"},
			known:       []string{"--wsdl", "http://h/x?wsdl"},
			passthrough: []string{"package"},
		},
		{
			name:        "double dash forwards the rest",
			args:        []string{"--dry-run", "--", "-v", "--projects", "a"},
			known:       []string{"--dry-run"},
			passthrough: []string{"-v", "--projects", "a"},
		},
		{
			name:  "legacy project flags",
			args:  []string{"-pn", "a,b", "--projectNames=c"},
			known: []string{"--projects", "a,b", "--projects=c"},
		},
		{
			name:        "unknown long flag",
			args:        []string{"--fail-at-end", "verify"},
			passthrough: []string{"--fail-at-end", "verify"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd(streams{})
			cmd, _, err := root.Find([]string{"shortcut"})
			if err != nil {
				t.Fatal(err)
			}
			known, passthrough := splitArgs(shortcutFlags(cmd), tt.args)
			if diff := cmp.Diff(tt.known, known); diff != "" {
				t.Errorf("known (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.passthrough, passthrough); diff != "" {
				t.Errorf("passthrough (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseProjectList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a,b", []string{"a", "b"}},
		{" a , ,b,", []string{"a", "b"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, parseProjectList(tt.in)); diff != "" {
			t.Errorf("parseProjectList(%q) (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		vals []string
		want string
	}{
		{[]string{"a", "b"}, "a"},
		{[]string{"", "b"}, "b"},
		{[]string{"", ""}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := firstNonEmpty(tt.vals...); got != tt.want {
			t.Errorf("firstNonEmpty(%q) = %q, want %q", tt.vals, got, tt.want)
		}
	}
}

func TestLoadConfigFallsBackOnBrokenFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".shortcut"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".shortcut", "config.yaml"), []byte("build: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	var warn strings.Builder
	cfg, err := loadConfig("", dir, &warn)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Build.Tool != "mvn" {
		t.Errorf("tool = %q, want default mvn", cfg.Build.Tool)
	}
	if !strings.Contains(warn.String(), "Warning: failed to load config") {
		t.Errorf("no warning printed: %q", warn.String())
	}

	if _, err := loadConfig(filepath.Join(dir, "missing.yaml"), dir, &warn); err == nil {
		t.Error("explicit missing config file should fail")
	}
}

// checkout is a temporary multi-project checkout with a fake build tool
// that records its arguments.
type checkout struct {
	root    string
	config  string
	argsLog string
}

func newCheckout(t *testing.T, toolExit int) *checkout {
	t.Helper()
	root := t.TempDir()
	c := &checkout{
		root:    root,
		config:  filepath.Join(root, "shortcut.yaml"),
		argsLog: filepath.Join(root, "args.txt"),
	}

	mustWrite := func(rel, body string, mode os.FileMode) {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), mode); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite(".repo/manifest.xml", "<manifest/>", 0o644)
	mustWrite("svc/a/pom.xml", "<project><artifactId>svcA</artifactId></project>", 0o644)
	mustWrite("svc/b/pom.xml", "<project><artifactId>svcB</artifactId></project>", 0o644)

	tool := filepath.Join(root, "fake-mvn")
	mustWrite("fake-mvn", "#!/bin/sh\nprintf '%s\\n' \"$@\" > '"+c.argsLog+"'\nexit "+strconv.Itoa(toolExit)+"\n", 0o755)
	mustWrite("shortcut.yaml", "build:\n  tool: "+tool+"\ncheckout:\n  markers: [\".repo\"]\n", 0o644)
	return c
}

func (c *checkout) recordedArgs(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(c.argsLog)
	if err != nil {
		t.Fatalf("build tool did not run: %v", err)
	}
	return strings.Fields(string(data))
}

func newOracle(t *testing.T) *oracletest.Server {
	t.Helper()
	srv := oracletest.NewServer(oracletest.KnowledgeBase{
		Scenarios: map[string][]string{
			"svcA": {"svcA_default"},
			"svcB": {"svcB_api", "svcB_impl"},
		},
		Dependents: map[string][]string{
			"svcA_default": {"svcB", "svcA"},
			"svcB_api":     {"svcB"},
			"svcB_impl":    {},
		},
		BuildPaths: map[string]string{
			"svcA": "svc/a/pom.xml",
			"svcB": "svc/b/pom.xml",
		},
	})
	t.Cleanup(srv.Close)
	return srv
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut strings.Builder
	code := run(context.Background(), args, streams{in: strings.NewReader(stdin), out: &out, err: &errOut})
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvWSDL, "")
	t.Setenv(config.EnvReport, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv("NO_COLOR", "1")
}

func TestShortcutBuildsAffectedProjects(t *testing.T) {
	isolateEnv(t)
	co := newCheckout(t, 0)
	srv := newOracle(t)
	chdir(t, filepath.Join(co.root, "svc", "a"))

	res := runCLI(t, "", "shortcut", "--config", co.config, "--wsdl", srv.WSDL(), "clean", "-DskipTests", "install")
	if res.code != 0 {
		t.Fatalf("exit = %d, stderr:\n%s", res.code, res.stderr)
	}

	want := []string{"-pl", "svc/a,svc/b", "clean", "-DskipTests", "install"}
	if diff := cmp.Diff(want, co.recordedArgs(t)); diff != "" {
		t.Errorf("build tool args (-want +got):\n%s", diff)
	}
	for _, s := range []string{"Found project name: svcA", "The project svcA has no build shortcuts."} {
		if !strings.Contains(res.stdout, s) {
			t.Errorf("stdout missing %q:\n%s", s, res.stdout)
		}
	}
	if strings.Contains(res.stdout, "Took:") {
		t.Error("successful run printed the failure timing")
	}
}

func TestShortcutPromptsForScenario(t *testing.T) {
	isolateEnv(t)
	co := newCheckout(t, 0)
	srv := newOracle(t)
	chdir(t, co.root)

	res := runCLI(t, "x\n1\n", "s", "--config", co.config, "--wsdl", srv.WSDL(), "-pn", "svcB", "-v", "verify")
	if res.code != 0 {
		t.Fatalf("exit = %d, stderr:\n%s", res.code, res.stderr)
	}
	if diff := cmp.Diff([]string{"-pl", "svc/b", "verify"}, co.recordedArgs(t)); diff != "" {
		t.Errorf("build tool args (-want +got):\n%s", diff)
	}
	for _, s := range []string{
		"Select the applicable scenario by entering its index: ",
		`"x" is not a valid selection`,
		"You selected this option: svcB_api",
		"All selected change scenarios:",
		"Found the following dependencies:",
	} {
		if !strings.Contains(res.stdout, s) {
			t.Errorf("stdout missing %q:\n%s", s, res.stdout)
		}
	}
}

func TestShortcutDryRunJSON(t *testing.T) {
	isolateEnv(t)
	co := newCheckout(t, 0)
	srv := newOracle(t)
	chdir(t, co.root)

	res := runCLI(t, "", "shortcut", "--config", co.config, "--wsdl", srv.WSDL(),
		"--projects", "svcA", "--dry-run", "--output", "json", "package")
	if res.code != 0 {
		t.Fatalf("exit = %d, stderr:\n%s", res.code, res.stderr)
	}
	if _, err := os.Stat(co.argsLog); err == nil {
		t.Error("dry run started the build tool")
	}

	start := strings.Index(res.stdout, "{")
	if start < 0 {
		t.Fatalf("no JSON in stdout:\n%s", res.stdout)
	}
	var view struct {
		AffectedProjects []string `json:"affected_projects"`
		BuildOptions     []string `json:"build_options"`
		DryRun           bool     `json:"dry_run"`
	}
	if err := json.Unmarshal([]byte(res.stdout[start:]), &view); err != nil {
		t.Fatalf("decoding JSON: %v\n%s", err, res.stdout)
	}
	if !view.DryRun {
		t.Error("dry_run = false")
	}
	if diff := cmp.Diff([]string{"svcA", "svcB"}, view.AffectedProjects); diff != "" {
		t.Errorf("affected (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"-pl", "svc/a,svc/b", "package"}, view.BuildOptions); diff != "" {
		t.Errorf("options (-want +got):\n%s", diff)
	}
}

func TestShortcutPropagatesBuildExitCode(t *testing.T) {
	isolateEnv(t)
	co := newCheckout(t, 3)
	srv := newOracle(t)
	chdir(t, co.root)

	res := runCLI(t, "", "shortcut", "--config", co.config, "--wsdl", srv.WSDL(), "-p", "svcA", "install")
	if res.code != 3 {
		t.Fatalf("exit = %d, want 3; stderr:\n%s", res.code, res.stderr)
	}
	if !strings.Contains(res.stderr, "Failed due to errors!") {
		t.Errorf("stderr missing failure banner:\n%s", res.stderr)
	}
	if !strings.Contains(res.stderr, "Remember to call 'b' instead of 'fake-mvn' to retry") {
		t.Errorf("stderr missing retry note:\n%s", res.stderr)
	}
	if !strings.Contains(res.stdout, "\nTook: ") {
		t.Errorf("stdout missing timing:\n%s", res.stdout)
	}
}

func TestShortcutOracleUnreachable(t *testing.T) {
	isolateEnv(t)
	co := newCheckout(t, 0)
	srv := newOracle(t)
	wsdl := srv.WSDL()
	srv.Close()
	chdir(t, co.root)

	res := runCLI(t, "", "shortcut", "--config", co.config, "--wsdl", wsdl, "install")
	if res.code != 1 {
		t.Fatalf("exit = %d, want 1", res.code)
	}
	if !strings.Contains(res.stderr, "Web service not found; cannot execute shortcut command!") {
		t.Errorf("stderr:\n%s", res.stderr)
	}
	for _, s := range []string{"Hint: here are two possible causes", "   1. ", "   2. "} {
		if !strings.Contains(res.stdout, s) {
			t.Errorf("stdout missing %q:\n%s", s, res.stdout)
		}
	}
	if _, err := os.Stat(co.argsLog); err == nil {
		t.Error("build tool ran without an oracle")
	}
}

func TestShortcutOutsideCheckout(t *testing.T) {
	isolateEnv(t)
	co := newCheckout(t, 0)
	srv := newOracle(t)
	elsewhere := t.TempDir()
	chdir(t, elsewhere)

	res := runCLI(t, "", "shortcut", "--config", co.config, "--wsdl", srv.WSDL(), "install")
	if res.code != 1 {
		t.Fatalf("exit = %d, want 1", res.code)
	}
	if !strings.Contains(res.stderr, "Could not find checkout root from '") {
		t.Errorf("stderr:\n%s", res.stderr)
	}
}

func TestShortcutMissingBuildFile(t *testing.T) {
	isolateEnv(t)
	co := newCheckout(t, 0)
	srv := newOracle(t)
	if err := os.Remove(filepath.Join(co.root, "svc", "b", "pom.xml")); err != nil {
		t.Fatal(err)
	}
	chdir(t, co.root)

	res := runCLI(t, "", "shortcut", "--config", co.config, "--wsdl", srv.WSDL(), "-p", "svcA", "install")
	if res.code != 1 {
		t.Fatalf("exit = %d, want 1", res.code)
	}
	if !strings.Contains(res.stderr, "Did you forget to initialize this module?") {
		t.Errorf("stderr:\n%s", res.stderr)
	}
	if _, err := os.Stat(co.argsLog); err == nil {
		t.Error("build tool ran with a missing module")
	}
}

func TestShortcutPublishesReport(t *testing.T) {
	isolateEnv(t)
	co := newCheckout(t, 0)
	srv := newOracle(t)
	reports := t.TempDir()
	chdir(t, co.root)

	res := runCLI(t, "", "shortcut", "--config", co.config, "--wsdl", srv.WSDL(),
		"--report", reports, "-p", "svcA", "install")
	if res.code != 0 {
		t.Fatalf("exit = %d, stderr:\n%s", res.code, res.stderr)
	}

	matches, err := filepath.Glob(filepath.Join(reports, "reports", "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("reports written = %d, want 1", len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	var r struct {
		ChangedProjects []string `json:"changed_projects"`
		ExitCode        int      `json:"exit_code"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"svcA"}, r.ChangedProjects); diff != "" {
		t.Errorf("changed projects (-want +got):\n%s", diff)
	}
}

func TestProjectsAndScenariosCommands(t *testing.T) {
	isolateEnv(t)
	srv := newOracle(t)
	chdir(t, t.TempDir())

	res := runCLI(t, "", "projects", "--wsdl", srv.WSDL())
	if res.code != 0 {
		t.Fatalf("projects exit = %d, stderr:\n%s", res.code, res.stderr)
	}
	if res.stdout != "svcA\nsvcB\n" {
		t.Errorf("projects stdout = %q", res.stdout)
	}

	res = runCLI(t, "", "scenarios", "--wsdl", srv.WSDL(), "svcB")
	if res.code != 0 {
		t.Fatalf("scenarios exit = %d, stderr:\n%s", res.code, res.stderr)
	}
	if res.stdout != "   1: svcB_api\n   2: svcB_impl\n" {
		t.Errorf("scenarios stdout = %q", res.stdout)
	}

	res = runCLI(t, "", "scenarios", "--wsdl", srv.WSDL(), "nope")
	if res.code != 1 || !strings.Contains(res.stderr, "Error: ") {
		t.Errorf("unknown project: exit = %d, stderr = %q", res.code, res.stderr)
	}
}

func TestRunsNeedsPostgresSink(t *testing.T) {
	isolateEnv(t)
	chdir(t, t.TempDir())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no sink", []string{"runs"}, "no report sink configured"},
		{"directory sink", []string{"runs", "--report", t.TempDir()}, "needs a postgres:// report sink"},
		{"bad limit", []string{"runs", "--report", "postgres://localhost/db", "--limit", "0"}, "--limit must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "", tt.args...)
			if res.code != 1 || !strings.Contains(res.stderr, tt.want) {
				t.Errorf("exit = %d, stderr = %q, want %q", res.code, res.stderr, tt.want)
			}
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+): it changes the working
// directory and PWD for the rest of the test and restores both on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", abs)
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})
}
