package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: quizdoc <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build      Build the HTML site")
	fmt.Fprintln(w, "  serve      Build, watch for changes and preview locally")
	fmt.Fprintln(w, "  check      Open built pages in headless Chrome and verify quizzes load")
	fmt.Fprintln(w, "  doctor     Check system configuration")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'quizdoc help <command>' for details on a specific command.")
}

func printBuildFlagHelp(w io.Writer) {
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: config output or _build/html)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path (default: <source>/quizdoc.yaml)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto, max 8)")
	fmt.Fprintln(w, "      --force               Rebuild every page")
	fmt.Fprintln(w, "  -W, --fail-on-warning     Exit 1 if the build has warnings")
	fmt.Fprintln(w, "  -q, --quiet               Only show warnings and errors")
	fmt.Fprintln(w, "  -v, --verbose             Show every page with timing")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: quizdoc build [source] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build the HTML site from the Markdown pages in source (default: .).")
	fmt.Fprintln(w, "Only pages whose source, quiz files or configuration changed are rebuilt.")
	fmt.Fprintln(w)
	printBuildFlagHelp(w)
	fmt.Fprintln(w)
	printEnvHelp(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: quizdoc serve [source] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build the site, rebuild on changes and serve the output until interrupted.")
	fmt.Fprintln(w)
	printBuildFlagHelp(w)
	fmt.Fprintln(w, "      --addr <host:port>    Listen address (default: localhost:8000)")
	fmt.Fprintln(w)
	printEnvHelp(w)
}

// printCheckUsage prints usage for the check command.
func printCheckUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: quizdoc check [output] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Open every built page in headless Chrome and verify that pages with")
	fmt.Fprintln(w, "quizzes load quizdown.js. Without output, the configured output directory")
	fmt.Fprintln(w, "is checked.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -t, --timeout <d>         Page load timeout (default: 30s)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show failures")
	fmt.Fprintln(w, "  -v, --verbose             Show quiz counts per page")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN           Chrome binary to use")
	fmt.Fprintln(w, "  ROD_NO_SANDBOX=1          Disable the Chrome sandbox (containers, CI)")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: quizdoc doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check configuration, output directory and Chrome availability.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Output as JSON")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
}

func printEnvHelp(w io.Writer) {
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  QUIZDOC_CONFIG            Config file name or path")
	fmt.Fprintln(w, "  QUIZDOC_OUTPUT_DIR        Output directory")
	fmt.Fprintln(w, "  QUIZDOC_WORKERS           Parallel workers")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "build":
		printBuildUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "check":
		printCheckUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: quizdoc version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: quizdoc help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
