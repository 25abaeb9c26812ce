// cmd.go - root command and environment docs
// Main functions: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/containerd/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ollama/minibpe/envconfig"
	"github.com/ollama/minibpe/logutil"
)

func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	if runtime.GOOS == "windows" && term.IsTerminal(int(os.Stdout.Fd())) {
		console.ConsoleFromFile(os.Stdin) //nolint:errcheck
	}

	rootCmd := &cobra.Command{
		Use:           "minibpe",
		Short:         "Train and run byte-level BPE tokenizers",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logutil.NewLogger(cmd.ErrOrStderr(), envconfig.LogLevel()))
			if logutil.Enabled(slog.LevelDebug) {
				slog.Debug("config", "env", envconfig.Values())
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}

	trainCmd := newTrainCmd()
	encodeCmd := newEncodeCmd()
	decodeCmd := newDecodeCmd()
	statsCmd := newStatsCmd()
	showCmd := newShowCmd()
	listCmd := newListCmd()
	deleteCmd := newDeleteCmd()
	importCmd := newImportTiktokenCmd()
	exportCmd := newExportCmd()

	envVars := envconfig.AsMap()
	envs := []envconfig.EnvVar{envVars["MINIBPE_DEBUG"], envVars["MINIBPE_STORE"]}

	for _, cmd := range []*cobra.Command{
		trainCmd,
		encodeCmd,
		decodeCmd,
		statsCmd,
		showCmd,
		listCmd,
		deleteCmd,
		importCmd,
		exportCmd,
	} {
		switch cmd {
		case trainCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["MINIBPE_DEBUG"],
				envVars["MINIBPE_STORE"],
				envVars["MINIBPE_PATTERN"],
				envVars["MINIBPE_REGEX_TIMEOUT"],
				envVars["MINIBPE_NUM_PARALLEL"],
			})
		case encodeCmd, decodeCmd, statsCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["MINIBPE_DEBUG"],
				envVars["MINIBPE_STORE"],
				envVars["MINIBPE_NOSTORE"],
				envVars["MINIBPE_NUM_PARALLEL"],
			})
		default:
			appendEnvDocs(cmd, envs)
		}
	}

	rootCmd.AddCommand(
		trainCmd,
		encodeCmd,
		decodeCmd,
		statsCmd,
		showCmd,
		listCmd,
		deleteCmd,
		importCmd,
		exportCmd,
	)

	return rootCmd
}
