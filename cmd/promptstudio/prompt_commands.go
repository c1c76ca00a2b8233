package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jrsteele09/promptstudio/bookmarks"
	"github.com/jrsteele09/promptstudio/internal/utils"
	"github.com/spf13/cobra"
)

func newPromptsCommand(appFn func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prompts",
		Aliases: []string{"bookmarks"},
		Short:   "List and manage bookmarked chats",
	}
	cmd.AddCommand(
		newPromptsListCommand(appFn),
		newPromptsAddCommand(appFn),
		newPromptsEditCommand(appFn),
		newPromptsRemoveCommand(appFn),
	)
	return cmd
}

func newPromptsListCommand(appFn func() *app) *cobra.Command {
	var filter bookmarks.Filter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookmarks, optionally by folder and search text",
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

			prompts := filter.Apply(lib.Prompts)
			if len(prompts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bookmarks.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tFOLDER\tURL")
			for _, p := range prompts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, utils.Value(p.Title), lib.FolderName(p.CollectionID), utils.Value(p.Content))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&filter.Folder, "folder", bookmarks.FolderAll, `collection id, or "uncategorized"`)
	cmd.Flags().StringVarP(&filter.Query, "query", "q", "", "match title or URL")
	return cmd
}

func newPromptsAddCommand(appFn func() *app) *cobra.Command {
	var title, url, folder string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Bookmark a chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFn()
			if err := a.requireSession(); err != nil {
				return err
			}
			user, err := a.session.User()
			if err != nil {
				return err
			}
			lib, err := a.bookmarks.Load(cmd.Context())
			if err != nil {
				return err
			}
			collectionID, err := resolveFolder(lib, folder)
			if err != nil {
				return err
			}

			p, err := a.bookmarks.Save(cmd.Context(), user, bookmarks.Draft{
				Title:        bookmarks.CleanChatTitle(title),
				URL:          url,
				CollectionID: collectionID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chat bookmarked! (%s)\n", p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "bookmark title; ChatGPT page decoration is stripped")
	cmd.Flags().StringVar(&url, "url", "", "chat URL")
	cmd.Flags().StringVar(&folder, "folder", bookmarks.FolderAll, "collection id to file the bookmark under")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newPromptsEditCommand(appFn func() *app) *cobra.Command {
	var title, url, folder string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a bookmark's title, URL or folder",
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
			lib, err := a.bookmarks.Load(cmd.Context())
			if err != nil {
				return err
			}
			current, ok := lib.Prompt(args[0])
			if !ok {
				return fmt.Errorf("no bookmark with id %q", args[0])
			}

			draft := bookmarks.Draft{
				ID:           current.ID,
				Title:        utils.Value(current.Title),
				URL:          utils.Value(current.Content),
				CollectionID: current.CollectionID,
			}
			if cmd.Flags().Changed("title") {
				draft.Title = title
			}
			if cmd.Flags().Changed("url") {
				draft.URL = url
			}
			if cmd.Flags().Changed("folder") {
				if draft.CollectionID, err = resolveFolder(lib, folder); err != nil {
					return err
				}
			}

			if _, err := a.bookmarks.Save(cmd.Context(), user, draft); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Bookmark updated!")
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&url, "url", "", "new chat URL")
	cmd.Flags().StringVar(&folder, "folder", "", `collection id, or "uncategorized"`)
	return cmd
}

func newPromptsRemoveCommand(appFn func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a bookmark",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			if err := a.requireSession(); err != nil {
				return err
			}
			if err := a.bookmarks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Bookmark deleted!")
			return nil
		},
	}
}

// resolveFolder maps a --folder value to a collection id. All and
// Uncategorized mean no collection; anything else must be a known collection.
func resolveFolder(lib *bookmarks.Library, folder string) (*string, error) {
	if folder == bookmarks.FolderAll || folder == bookmarks.FolderUncategorized {
		return nil, nil
	}
	id := lib.DefaultCollection(folder)
	if id == nil {
		return nil, fmt.Errorf("no collection with id %q", folder)
	}
	return id, nil
}
