package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/moolen/hac-console/internal/kube"
	"github.com/moolen/hac-console/internal/snapshot"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	outputFormat      string
	snapshotNamespace string

	// newDynamicClient is swapped in tests.
	newDynamicClient = kube.NewDynamicClient
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect snapshots and re-run integration test scenarios",
}

var snapshotErrorsCmd = &cobra.Command{
	Use:   "errors NAME",
	Short: "Print the environment provision errors of a snapshot, most recent first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newDynamicClient(cfg.Kubeconfig)
		if err != nil {
			return err
		}
		obj, err := snapshot.NewLister(client).Get(commandContext(cmd), namespace(), args[0])
		if err != nil {
			return err
		}
		errs, ok := snapshot.EnvironmentProvisionErrors(obj)
		if !ok {
			return fmt.Errorf("snapshot %s has no integration test status", args[0])
		}
		return printErrors(cmd.OutOrStdout(), errs, outputFormat)
	},
}

var snapshotRerunCmd = &cobra.Command{
	Use:   "rerun NAME SCENARIO",
	Short: "Request a re-run of SCENARIO for the snapshot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newDynamicClient(cfg.Kubeconfig)
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		obj, err := snapshot.NewLister(client).Get(ctx, namespace(), args[0])
		if err != nil {
			return err
		}
		if _, err := snapshot.NewRerunner(client, nil).Rerun(ctx, obj, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "re-run of %s requested for snapshot %s\n", args[1], args[0])
		return nil
	},
}

func init() {
	snapshotCmd.PersistentFlags().StringVarP(&snapshotNamespace, "namespace", "n", "", "Namespace (defaults to the configured namespace)")
	snapshotErrorsCmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format: yaml or json")

	snapshotCmd.AddCommand(snapshotErrorsCmd, snapshotRerunCmd)
}

func namespace() string {
	if snapshotNamespace != "" {
		return snapshotNamespace
	}
	return cfg.Namespace
}

func printErrors(w io.Writer, errs []snapshot.ErrorStatus, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(errs)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(errs); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (must be yaml or json)", format)
	}
}
