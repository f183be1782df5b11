package commands

import (
	"context"
	"fmt"

	"github.com/moolen/hac-console/internal/github"
	"github.com/spf13/cobra"
)

var repoOwner string

var githubCmd = &cobra.Command{
	Use:   "github",
	Short: "GitHub repository helpers used by the e2e suite",
}

var createRepoCmd = &cobra.Command{
	Use:   "create-repo NAME",
	Short: "Create a repository in the configured organisation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newGitHubClient()
		if err != nil {
			return err
		}
		return client.CreateRepository(commandContext(cmd), args[0])
	},
}

var deleteRepoCmd = &cobra.Command{
	Use:   "delete-repo NAME",
	Short: "Delete a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newGitHubClient()
		if err != nil {
			return err
		}
		return client.DeleteRepository(commandContext(cmd), github.Repository{Owner: repoOwner, Name: args[0]})
	},
}

var importRepoCmd = &cobra.Command{
	Use:   "import-repo FROM_URL NAME",
	Short: "Import FROM_URL into NAME and wait until the import completes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newGitHubClient()
		if err != nil {
			return err
		}
		return client.ImportRepository(commandContext(cmd), args[0], args[1])
	},
}

var deleteFolderCmd = &cobra.Command{
	Use:   "delete-folder REPO_URL FOLDER",
	Short: "Delete FOLDER from the configured branch in a single commit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := github.ParseRepoURL(args[0])
		if err != nil {
			return err
		}
		client, err := newGitHubClient()
		if err != nil {
			return err
		}
		result, err := client.DeleteFolder(commandContext(cmd), repo, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d files in commit %s (was %s)\n",
			result.DeletedBlobs, result.NewCommit, result.OldCommit)
		return nil
	},
}

var prNumberCmd = &cobra.Command{
	Use:   "pr-number COMPONENT REPO_URL",
	Short: "Print the number of the first pull request matching COMPONENT",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := github.ParseRepoURL(args[1])
		if err != nil {
			return err
		}
		client, err := newGitHubClient()
		if err != nil {
			return err
		}
		number, err := client.SearchPullRequestNumber(commandContext(cmd), args[0], repo)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), number)
		return nil
	},
}

func init() {
	deleteRepoCmd.Flags().StringVar(&repoOwner, "owner", "", "Repository owner (defaults to the configured org)")

	githubCmd.AddCommand(createRepoCmd, deleteRepoCmd, importRepoCmd, deleteFolderCmd, prNumberCmd)
}

func newGitHubClient() (*github.Client, error) {
	return github.NewClient(cfg.GitHub)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
