package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tarantool/mkrepo/internal/deb"
	"github.com/tarantool/mkrepo/internal/signer"
	"github.com/tarantool/mkrepo/internal/storage"
)

// NewReconcileDebCmd builds the "reconcile deb" subcommand.
func NewReconcileDebCmd() *cobra.Command {
	var (
		root, dist, origin, label, description string
		archs                                  []string
		force                                  bool
		scratchRoot, keyPath                   string
	)

	cmd := &cobra.Command{
		Use:   "deb",
		Short: "Reconcile an APT distribution's Packages/Sources/Release metadata",
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

			opts := deb.Options{
				Dist:          dist,
				Origin:        origin,
				Label:         label,
				Description:   description,
				Architectures: archs,
				Force:         force,
				ScratchRoot:   scratchRoot,
				Signer:        sign,
			}

			return deb.Reconcile(cmd.Context(), s, opts, log)
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "storage root directory")
	cmd.Flags().StringVar(&dist, "dist", "", "distribution codename under pool/<dist>/main (required)")
	cmd.Flags().StringVar(&origin, "origin", os.Getenv("MKREPO_DEB_ORIGIN"), "Release Origin field")
	cmd.Flags().StringVar(&label, "label", os.Getenv("MKREPO_DEB_LABEL"), "Release Label field")
	cmd.Flags().StringVar(&description, "description", os.Getenv("MKREPO_DEB_DESCRIPTION"), "Release Description field")
	cmd.Flags().StringSliceVar(&archs, "arch", nil, "architectures to reconcile, beyond what Release already lists")
	cmd.Flags().BoolVar(&force, "force", false, "record malformed artifacts instead of aborting")
	cmd.Flags().StringVar(&scratchRoot, "scratch", "", "local scratch directory for downloaded artifacts")
	cmd.Flags().StringVar(&keyPath, "key", os.Getenv(signer.KeyNameEnv), "path to an OpenPGP private key for signing")

	cmd.MarkFlagRequired("dist")

	return cmd
}
