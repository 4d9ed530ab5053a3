package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mkrepo",
		Short: "Reconcile static APT and YUM repository metadata",
		Long: `mkrepo scans an object store for .deb/.dsc/.rpm artifacts and
reconciles the Packages/Sources/Release (APT) or primary/filelists/other/
repomd (YUM) metadata families against what is already published, adding
only what changed since the last run.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile repository metadata for one package format",
	}
	reconcileCmd.AddCommand(NewReconcileDebCmd())
	reconcileCmd.AddCommand(NewReconcileRPMCmd())
	rootCmd.AddCommand(reconcileCmd)

	return rootCmd
}
