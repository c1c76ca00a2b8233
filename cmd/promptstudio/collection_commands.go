package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jrsteele09/promptstudio/bookmarks"
	"github.com/spf13/cobra"
)

func newCollectionsCommand(appFn func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"folders"},
		Short:   "List and manage collections",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List collections with their bookmark counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a := appFn()
				if err := a.requireSession(); err != nil {
					return err
				}
				lib, err := a.bookmarks.Load(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tBOOKMARKS")
				for _, c := range lib.Collections {
					n := len(bookmarks.Filter{Folder: c.ID}.Apply(lib.Prompts))
					fmt.Fprintf(w, "%s\t%s\t%d\n", c.ID, lib.FolderName(&c.ID), n)
				}
				uncategorized := len(bookmarks.Filter{Folder: bookmarks.FolderUncategorized}.Apply(lib.Prompts))
				fmt.Fprintf(w, "%s\t%s\t%d\n", "-", lib.FolderName(nil), uncategorized)
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create a collection",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFn()
				if err := a.requireSession(); err != nil {
					return err
				}
				user, err := a.session.User()
				if err != nil {
					return err
				}
				c, err := a.bookmarks.AddCollection(cmd.Context(), user, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Collection created. (%s)\n", c.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a collection",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFn()
				if err := a.requireSession(); err != nil {
					return err
				}
				user, err := a.session.User()
				if err != nil {
					return err
				}
				if _, err := a.bookmarks.RenameCollection(cmd.Context(), user, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Collection renamed.")
				return nil
			},
		},
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"delete"},
			Short:   "Delete a collection",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFn()
				if err := a.requireSession(); err != nil {
					return err
				}
				if err := a.bookmarks.DeleteCollection(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Collection deleted.")
				return nil
			},
		},
	)
	return cmd
}
