package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	quizdown "github.com/alnah/go-quizdown"
	"github.com/alnah/go-quizdown/internal/fileutil"
	"github.com/alnah/go-quizdown/internal/hints"
	"github.com/alnah/go-quizdown/internal/quizext"
	"github.com/alnah/go-quizdown/internal/site"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Config   configInfo `json:"config"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// configInfo holds configuration check results.
type configInfo struct {
	Loaded         bool     `json:"loaded"`
	File           string   `json:"file,omitempty"` // empty when defaults are used
	Source         string   `json:"source,omitempty"`
	Output         string   `json:"output,omitempty"`
	Extensions     []string `json:"extensions,omitempty"`
	QuizOptions    []string `json:"quiz_options,omitempty"`
	OutputWritable bool     `json:"output_writable"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(args []string, env *Environment) int {
	var jsonOutput bool
	var configName string
	fs := newFlagSet("doctor", env.Stderr, printDoctorUsage)
	fs.BoolVar(&jsonOutput, "json", false, "output as JSON")
	fs.StringVarP(&configName, "config", "c", "", "config file name or path")
	if err := parse(fs, args); err != nil {
		if isHelp(err) {
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, "error:", err)
		return exitCodeFor(err)
	}

	result := runDoctor(configName)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(configName string) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkConfig(result, configName)
	checkChrome(result)
	checkEnvironment(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkConfig loads the configuration the way build does and sets up its
// extensions, so bad values surface before a build.
func checkConfig(result *doctorResult, configName string) {
	cfg, err := resolveConfig(configName, "")
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}

	result.Config.Loaded = true
	result.Config.File = cfg.File
	result.Config.Source = cfg.SourceDir()
	result.Config.Output = cfg.OutputDir()
	result.Config.Extensions = cfg.Extensions

	if !fileutil.DirExists(cfg.SourceDir()) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Source directory not found: %s", cfg.SourceDir()))
	}

	app := site.NewApp()
	if err := app.LoadExtensions(cfg.Extensions, quizext.Registry()); err != nil {
		result.Errors = append(result.Errors, err.Error())
	} else {
		diags, err := app.InitConfig(cfg.Values)
		for _, d := range diags {
			result.Warnings = append(result.Warnings, d.Message)
		}
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
		} else {
			checkQuizConfig(result, cfg.Values)
		}
	}

	if err := fileutil.DirWritable(cfg.OutputDir()); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Output directory not writable: %s: %v", cfg.OutputDir(), err))
	} else {
		result.Config.OutputWritable = true
	}
}

// checkQuizConfig inspects the quizdown options the build will use.
func checkQuizConfig(result *doctorResult, values map[string]any) {
	opts, _ := values[quizdown.ConfigValueName].(map[string]any)
	cfg, err := quizdown.NewConfig(opts)
	if err != nil {
		return
	}
	result.Config.QuizOptions = cfg.Keys()

	if url := cfg.ScriptURL(); !fileutil.IsURL(url) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("quizdown_js %q is not an http(s) URL; copy it through staticPath so pages can load it", url))
	}
	if v, ok := cfg.Value(quizdown.KeyStartOnLoad); ok {
		if on, isBool := v.(bool); isBool && !on {
			result.Warnings = append(result.Warnings,
				"start_on_load is false; quizzes only render on pages that start quizdown themselves")
		}
	}
}

// checkChrome detects Chrome/Chromium installation. Only the check command
// needs a browser, so a missing one is a warning.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found; quizdoc check will download Chromium or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- path from LookPath or ROD_BROWSER_BIN
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()
	result.Env.CI = hints.InCI()

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "quizdoc doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Configuration")
	if r.Config.Loaded {
		if r.Config.File != "" {
			fmt.Fprintf(w, "  [OK] File: %s\n", r.Config.File)
		} else {
			fmt.Fprintln(w, "  [OK] File: none, using defaults")
		}
		fmt.Fprintf(w, "  [OK] Source: %s\n", r.Config.Source)
		if r.Config.OutputWritable {
			fmt.Fprintf(w, "  [OK] Output: %s (writable)\n", r.Config.Output)
		} else {
			fmt.Fprintf(w, "  [ERROR] Output: %s (not writable)\n", r.Config.Output)
		}
		if len(r.Config.Extensions) > 0 {
			fmt.Fprintf(w, "  [OK] Extensions: %s\n", strings.Join(r.Config.Extensions, ", "))
		}
		if len(r.Config.QuizOptions) > 0 {
			fmt.Fprintf(w, "  [OK] Quiz options: %s\n", strings.Join(r.Config.QuizOptions, ", "))
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not loaded")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium (for quizdoc check)")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to build")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
