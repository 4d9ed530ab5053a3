package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tarantool/mkrepo/internal/rpm"
	"github.com/tarantool/mkrepo/internal/signer"
	"github.com/tarantool/mkrepo/internal/storage"
)

// NewReconcileRPMCmd builds the "reconcile rpm" subcommand.
func NewReconcileRPMCmd() *cobra.Command {
	var (
		root, prefix, scratchRoot, keyPath string
		force                              bool
	)

	cmd := &cobra.Command{
		Use:   "rpm",
		Short: "Reconcile a YUM repository's primary/filelists/other/repomd metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.StandardLogger()

			s := storage.NewFilesystem(root)

			var sign signer.Signer
			if keyPath != "" {
				gpg, err := signer.NewGPGSigner(keyPath, os.Getenv("MKREPO_GPG_PASSPHRASE"))
				if err != nil {
					return err
				}
				sign = gpg
			}

			opts := rpm.Options{
				RPMPrefix:   prefix,
				Force:       force,
				ScratchRoot: scratchRoot,
				Signer:      sign,
			}

			return rpm.Reconcile(cmd.Context(), s, opts, log)
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "storage root directory")
	cmd.Flags().StringVar(&prefix, "prefix", "Packages", "storage prefix under which *.rpm artifacts are listed")
	cmd.Flags().BoolVar(&force, "force", false, "record malformed artifacts instead of aborting")
	cmd.Flags().StringVar(&scratchRoot, "scratch", "", "local scratch directory for downloaded artifacts")
	cmd.Flags().StringVar(&keyPath, "key", os.Getenv(signer.KeyNameEnv), "path to an OpenPGP private key for signing")

	return cmd
}
