package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/cricket-graph/internal/fetch"
)

// fetch command flags.
var (
	// fetchURL is the archive or match file to download.
	fetchURL string
	// fetchDir receives the extracted match files.
	fetchDir string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download cricsheet match files",
	Long: `Download the cricsheet IPL archive and unpack its JSON match files.

Files already present in the target directory are left alone, so fetch can
be re-run to pick up new matches. Load the result with:

  cricgraph ingest --cricsheet <dir>`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchURL, "url", fetch.DefaultURL, "archive (.zip) or single match file to download")
	fetchCmd.Flags().StringVar(&fetchDir, "out", "ipl_json", "directory to write match files to")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	fmt.Fprintf(os.Stdout, "Downloading %s...\n", fetchURL)
	res, err := fetch.NewClient(log).Download(cmd.Context(), fetchURL, fetchDir)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	cOK.Fprintf(os.Stdout, "%d new files", len(res.Written))
	cMuted.Fprintf(os.Stdout, ", %d already present in %s\n", len(res.Skipped), fetchDir)
	return nil
}
