// Converts the FAIR1M, DOTA and xView remote sensing object detection datasets to COCO JSON,
// summarises COCO datasets and exports them as TFRecord files.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newRootCommand creates the rscoco command tree with its own viper instance.
func newRootCommand() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:          "rscoco",
		Short:        "Convert remote sensing detection datasets to COCO",
		SilenceUsage: true,
	}
	if err := setupGlobalFlags(rootCmd, v); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		fair1mCommand(v),
		dotaCommand(v),
		xviewCommand(v),
		statsCommand(),
		filterCommand(v),
		splitCommand(v),
		tfrecordCommand(v),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		log.SetOutput(cmd.ErrOrStderr())
		return loadConfig(v)
	}

	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
