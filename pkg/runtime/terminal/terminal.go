package terminal

import (
	"github.com/de-tools/vm-cost-atlas/pkg/runtime/terminal/commands"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	factory commands.PipelineFactory
	rootCmd *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Factory commands.PipelineFactory
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	cli := &CLI{factory: opts.Factory}
	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vmcosts",
		Short: "Azure VM cost comparison tool",
	}

	cmd.AddCommand(commands.NewReportCmd(cli.factory))

	return cmd
}
