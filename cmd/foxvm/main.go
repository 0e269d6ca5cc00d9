/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Command foxvm is the process entry point spec.md §6 describes: it
// parses the command line, initializes the runtime (memory, heap,
// classloader, thread registry), bootstraps the main thread, runs
// java.lang.System.initializeSystemClass, resolves the user's main
// class, and invokes main([Ljava/lang/String;)V, reporting an exit
// code drawn from internal/shutdown's taxonomy. Flag/usage handling
// follows artipop-jacobin/src/cli_test.go's implied HandleCli shape
// (env-var JVM options, -help/-version short-circuiting before any
// class is touched), rebuilt on cobra since this module's go.mod
// already commits to github.com/spf13/cobra for CLI parsing.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"foxvm/internal/bootstrap"
	"foxvm/internal/globals"
	"foxvm/internal/shutdown"
	"foxvm/internal/trace"
)

var (
	classpath   string
	showVersion bool
	verbose     bool
	traceClass  bool
)

const vmName = "foxvm"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is split out from main so it can be exercised by tests without
// an os.Exit call tearing down the test binary.
func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return shutdown.JVM_EXCEPTION
	}
	return exitCode
}

// exitCode is set by runMainClass's RunE body; cobra's Execute()
// doesn't otherwise propagate a process exit status back to main().
var exitCode int

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     vmName + " [options] <mainclass> [args...]",
		Short:   "foxvm is an AOT-translated Java bytecode runtime",
		Version: "0.1.0",
		Args:    cobra.ArbitraryArgs,
		RunE:    runMainClass,
		// jacobin's own -help prints "Usage:" and "where options
		// include" to stderr; cobra's default usage template covers
		// the same contract closely enough that HandleUsageMessage's
		// observable behavior (stderr output, then stop) is preserved
		// by leaving SilenceUsage false plus the custom usage template
		// below.
		SilenceErrors: true,
	}
	cmd.SetUsageTemplate(usageTemplate)
	cmd.SetOut(os.Stderr)
	cmd.SetErr(os.Stderr)

	cmd.Flags().StringVarP(&classpath, "classpath", "c", "", "application classpath")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose tracing")
	cmd.Flags().BoolVar(&traceClass, "trace-class", false, "trace class loading")
	cmd.Flags().BoolVar(&showVersion, "show-version", false, "print version information and continue")

	return cmd
}

const usageTemplate = `Usage:
  {{.UseLine}}

where options include:
{{.LocalFlags.FlagUsages}}
`

// runMainClass is cobra's RunE body: it performs §6's full
// initialization sequence, then resolves and invokes the user's main
// class, translating the outcome into one of internal/shutdown's exit
// codes.
func runMainClass(cmd *cobra.Command, args []string) error {
	envOpts := getEnvArgs()
	if envOpts != "" {
		trace.Info("JVM options from environment: " + envOpts)
	}

	if showVersion {
		fmt.Fprintf(cmd.OutOrStderr(), "%s version 0.1.0\n", vmName)
	}

	if len(args) == 0 {
		cmd.Println(cmd.UsageString())
		exitCode = shutdown.TEST_AND_STAY
		return nil
	}

	mainClassName := toInternalName(args[0])
	programArgs := args[1:]

	rt, err := bootstrap.New(vmName)
	if err != nil {
		exitCode = shutdown.JVM_EXCEPTION
		return err
	}
	g := globals.GetGlobalRef()
	if classpath != "" {
		g.Classpath = strings.Split(classpath, string(os.PathListSeparator))
	}
	g.TraceClass = traceClass

	if err := rt.StartMainThread(); err != nil {
		exitCode = shutdown.JVM_EXCEPTION
		return err
	}

	uncaught, runErr := rt.RunMain(mainClassName, programArgs)
	if runErr != nil {
		exitCode = shutdown.JVM_EXCEPTION
		return runErr
	}
	if uncaught != nil {
		fmt.Fprintln(os.Stderr, bootstrap.HandleUncaught(uncaught))
		exitCode = shutdown.APP_EXCEPTION
		return nil
	}

	exitCode = shutdown.OK
	return nil
}

// toInternalName converts a dotted class name (the form a user passes
// on the command line, e.g. "com.example.Main") to JVMS internal form
// ("com/example/Main"); a name already containing '/' is assumed to
// already be internal form.
func toInternalName(name string) string {
	if strings.Contains(name, "/") {
		return name
	}
	return strings.ReplaceAll(name, ".", "/")
}

// getEnvArgs collects JAVA_TOOL_OPTIONS, _JAVA_OPTIONS and
// JDK_JAVA_OPTIONS (in that precedence order) and joins whichever are
// set with a single space, matching jacobin's own getEnvArgs
// (confirmed by cli_test.go's TestGetJVMenvVariablesWhenTwoArePresent:
// unsetting JAVA_TOOL_OPTIONS and setting the other two yields
// "Hello, Jacobin!" with one space between them).
func getEnvArgs() string {
	var parts []string
	for _, name := range []string{"JAVA_TOOL_OPTIONS", "_JAVA_OPTIONS", "JDK_JAVA_OPTIONS"} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
