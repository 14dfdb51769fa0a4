package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the declared release targets",
	Long: `List every target declared in the release configuration with its
backend, toolchain triple and staged artifact name.`,
	RunE: runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}

func runTargets(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadRelease()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBACKEND\tTRIPLE\tARTIFACT\tIMAGE")
	for _, t := range cfg.Targets {
		image := t.Image
		if image == "" {
			image = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Backend, t.Triple, t.StagedName(), image)
	}
	return w.Flush()
}
