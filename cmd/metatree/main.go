// Command metatree learns Bayesian meta-tree ensembles from CSV data,
// evaluates them, and predicts new targets.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bayesgo/metatree/pkg/log"
)

type rootCmdConfig struct {
	configPath string
	logLevel   string
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "metatree",
		Short: "metatree learns Bayesian decision-tree ensembles",
		Long: `A tool to learn a posterior distribution over meta-trees from CSV data,
evaluate its predictions, and inspect feature importances.`,
		SilenceUsage: true,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().StringVarP(&(config.configPath), "config", "c", "", "path to the YAML model configuration (required)")
	rootCmd.PersistentFlags().StringVar(&(config.logLevel), "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		log.SetLevel(log.ToLevel(config.logLevel))
	}
	rootCmd.AddCommand(versionCmd(), fitCmd(config), predictCmd(config), evalCmd(config), importanceCmd(config))
	return rootCmd
}
