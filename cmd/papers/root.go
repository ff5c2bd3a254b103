package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"paper-hub/models"
	"paper-hub/services"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// opener liefert eine verbundene Sitzung. Tests ersetzen sie durch einen In-Memory-Store.
type opener func(ctx context.Context, debug bool) (*services.LibraryService, error)

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:           "papers",
		Short:         "Shared paper library with optimistic sync",
		Long:          `papers reads and edits the team paper library. Every change is applied to the latest stored document and written back only if nobody changed it in between.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	session := func(cmd *cobra.Command) (*services.LibraryService, error) {
		return open(cmd.Context(), debug)
	}

	rootCmd.AddCommand(
		newListCmd(session),
		newAddCmd(session),
		newDeleteCmd(session),
		newCommentCmd(session),
		newWhoamiCmd(session),
		newExportCmd(session),
	)
	return rootCmd
}

type sessionFunc func(cmd *cobra.Command) (*services.LibraryService, error)

func newListCmd(session sessionFunc) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List papers in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := session(cmd)
			if err != nil {
				return err
			}
			st := library.State()
			w := cmd.OutOrStdout()

			switch output {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			case "yaml":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(st)
			case "table", "":
				if len(st.Papers) == 0 {
					fmt.Fprintln(w, "(no papers)")
					return nil
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tSOURCE\tADDED BY\tCOMMENTS\tTAGS")
				for _, p := range st.Papers {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
						p.ID, p.Title, source(p), p.AddedBy, len(p.Comments), strings.Join(p.Tags, ","))
				}
				return tw.Flush()
			default:
				return fmt.Errorf("unknown output format %q (use table, json or yaml)", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json, yaml")
	return cmd
}

func source(p models.Paper) string {
	if p.SourceKind == models.SourceHosted {
		return p.HostedPath
	}
	return "arXiv:" + p.ExternalID
}

func newAddCmd(session sessionFunc) *cobra.Command {
	var in services.PaperInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a paper (arXiv id/URL or hosted file path)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (in.ExternalRef == "") == (in.HostedPath == "") {
				return &services.ValidationError{Reason: "specify exactly one of --arxiv or --path"}
			}
			library, err := session(cmd)
			if err != nil {
				return err
			}
			p, err := library.AddPaper(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s (%s)\n", p.ID, p.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "paper title")
	cmd.Flags().StringVar(&in.ExternalRef, "arxiv", "", "arXiv id or abs/pdf URL")
	cmd.Flags().StringVar(&in.HostedPath, "path", "", "path of a hosted PDF")
	cmd.Flags().StringSliceVar(&in.Tags, "tags", nil, "comma separated tags")
	return cmd
}

func newDeleteCmd(session sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <paper-id>",
		Short: "Delete a paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := session(cmd)
			if err != nil {
				return err
			}
			st, err := library.DeletePaper(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s (%d papers left)\n", args[0], len(st.Papers))
			return nil
		},
	}
}

func newCommentCmd(session sessionFunc) *cobra.Command {
	var in services.CommentInput
	cmd := &cobra.Command{
		Use:   "comment <paper-id>",
		Short: "Add a comment to a paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := session(cmd)
			if err != nil {
				return err
			}
			c, err := library.AddComment(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Comment %s added by %s\n", c.ID, c.Author)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Text, "text", "", "comment text")
	cmd.Flags().StringVar(&in.PageRef, "page", "", "page reference")
	cmd.Flags().StringVar(&in.Quote, "quote", "", "quoted passage")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newWhoamiCmd(session sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity used for commits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := session(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), library.User().Login)
			return nil
		},
	}
}

func newExportCmd(session sessionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the library as a reference list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := session(cmd)
			if err != nil {
				return err
			}
			for _, ref := range library.References() {
				fmt.Fprintln(cmd.OutOrStdout(), ref)
			}
			return nil
		},
	}
}
