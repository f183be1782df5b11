package commands

import (
	"fmt"

	"github.com/moolen/hac-console/internal/kube"
	"github.com/moolen/hac-console/internal/logging"
	"github.com/spf13/cobra"
)

var forceClean bool

var cleanCmd = &cobra.Command{
	Use:   "clean-namespace",
	Short: "Delete all console resources in the configured namespace",
	Long: `Delete applications, components, snapshots and integration test scenarios in
the configured namespace. Does nothing unless clean_namespace (CLEAN_NAMESPACE)
is enabled or --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.GetLogger("clean")
		if !cfg.CleanNamespace && !forceClean {
			logger.Info("Namespace cleanup disabled, skipping")
			return nil
		}

		client, err := newDynamicClient(cfg.Kubeconfig)
		if err != nil {
			return err
		}
		n, err := kube.CleanNamespace(commandContext(cmd), client, cfg.Namespace)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d resources from %s\n", n, cfg.Namespace)
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&forceClean, "force", false, "Clean even when clean_namespace is disabled")
}
