package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "doc",
	Aliases: []string{"document"},
	Short:   "Read and write documents",
	Long:    `Fetch, create, update, delete and list documents in a database.`,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [database] [id]",
	Short: "Print the current revision of a document",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentGet,
}

var documentPutCmd = &cobra.Command{
	Use:   "put [database] [json]",
	Short: "Create or update a document",
	Long: `Create or update a document from a JSON object given as an argument or
on stdin. Include _id and _rev in the body to update an existing revision.
Without an _id the server assigns one unless --id or --uuid is given.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDocumentPut,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [database] [id]",
	Short: "Delete a document",
	Long: `Delete a document at --rev. With --latest the current revision is
fetched first, which skips the stale-revision check.`,
	Args: cobra.ExactArgs(2),
	RunE: runDocumentDelete,
}

var documentListCmd = &cobra.Command{
	Use:   "list [database]",
	Short: "List document ids and revisions",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentList,
}

var (
	putID      string
	putUUID    bool
	deleteRev  string
	deleteLast bool
	prettyJSON bool
)

func init() {
	documentGetCmd.Flags().BoolVar(&prettyJSON, "pretty", false, "indent JSON even when stdout is not a terminal")
	documentPutCmd.Flags().StringVar(&putID, "id", "", "document id to use when the body has none")
	documentPutCmd.Flags().BoolVar(&putUUID, "uuid", false, "generate a random id when the body has none")
	documentDeleteCmd.Flags().StringVar(&deleteRev, "rev", "", "revision to delete")
	documentDeleteCmd.Flags().BoolVar(&deleteLast, "latest", false, "delete whatever revision is current")

	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentPutCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentListCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	docs, err := requireDocuments()
	if err != nil {
		return err
	}

	doc, err := docs.Fetch(cmd.Context(), args[0], args[1])
	if domain.IsNotFound(err) {
		return fmt.Errorf("document %s not found in %s", args[1], args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to fetch document: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), data, prettyJSON)
}

func runDocumentPut(cmd *cobra.Command, args []string) error {
	docs, err := requireDocuments()
	if err != nil {
		return err
	}

	var body []byte
	if len(args) == 2 && args[1] != "-" {
		body = []byte(args[1])
	} else {
		body, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("no document body given")
	}

	doc, err := domain.ParseDocument(body)
	if err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	if !doc.Ref().HasID() {
		switch {
		case putID != "":
			doc.SetRef(domain.DocumentRef{ID: putID, Revision: doc.Revision()})
		case putUUID:
			doc.SetRef(domain.DocumentRef{ID: uuid.NewString(), Revision: doc.Revision()})
		}
	}

	ref, err := docs.Put(cmd.Context(), args[0], doc)
	if domain.IsConflict(err) {
		return fmt.Errorf("document %s was changed by someone else; fetch it and retry", doc.ID())
	}
	if err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}

	cmd.Printf("%s %s\n", ref.ID, ref.Revision)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	docs, err := requireDocuments()
	if err != nil {
		return err
	}

	database, id := args[0], args[1]
	ref := domain.DocumentRef{ID: id, Revision: deleteRev}

	if deleteLast && ref.Revision == "" {
		doc, err := docs.Fetch(cmd.Context(), database, id)
		if err != nil {
			return fmt.Errorf("failed to fetch current revision: %w", err)
		}
		ref.Revision = doc.Revision()
	}

	if err := docs.Delete(cmd.Context(), database, ref); err != nil {
		if domain.IsPrecondition(err) {
			return fmt.Errorf("%w; pass --rev or --latest", err)
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted %s from %s.\n", id, database)
	return nil
}

func runDocumentList(cmd *cobra.Command, args []string) error {
	docs, err := requireDocuments()
	if err != nil {
		return err
	}

	infos, err := docs.List(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(infos) == 0 {
		cmd.Printf("No documents in %s\n", args[0])
		return nil
	}

	width := 0
	for _, info := range infos {
		width = max(width, len(info.ID))
	}
	for _, info := range infos {
		cmd.Printf("%-*s  %s\n", width, info.ID, info.Revision)
	}
	cmd.Printf("\nTotal: %d documents\n", len(infos))
	return nil
}

// writeJSON prints data, indented when w is a terminal or pretty is set.
func writeJSON(w io.Writer, data []byte, pretty bool) error {
	if pretty || isTerminal(w) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err == nil {
			data = buf.Bytes()
		}
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(string(data), "\n"))
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
