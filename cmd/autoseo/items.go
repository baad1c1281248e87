package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"datolab/autoseo/pkg/content"
)

var itemsFlags struct {
	title       string
	content     string
	contentFile string
	excerpt     string
	categories  []string
	tags        []string
	limit       int
}

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Manage content items",
	Long: `Add and inspect content items in the content store.

Examples:
  # Add a draft from a file
  autoseo items add --title "Ten days in Lisbon" --content-file post.txt

  # Drafts with their current terms
  autoseo items list

  # One item
  autoseo items show 12

  # Items sharing categories or tags with item 12
  autoseo items related 12 --limit 5`,
}

var itemsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a draft item",
	Args:  cobra.NoArgs,
	RunE:  runItemsAdd,
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List draft items with their categories and tags",
	Args:  cobra.NoArgs,
	RunE:  runItemsList,
}

var itemsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one item with its categories and tags",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsShow,
}

var itemsRelatedCmd = &cobra.Command{
	Use:   "related <id>",
	Short: "List items sharing categories or tags with an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsRelated,
}

func init() {
	rootCmd.AddCommand(itemsCmd)
	itemsCmd.AddCommand(itemsAddCmd, itemsListCmd, itemsShowCmd, itemsRelatedCmd)

	itemsRelatedCmd.Flags().IntVar(&itemsFlags.limit, "limit", 0, "maximum items to list (0 for all)")

	itemsAddCmd.Flags().StringVar(&itemsFlags.title, "title", "", "item title (required)")
	itemsAddCmd.Flags().StringVar(&itemsFlags.content, "content", "", "item body")
	itemsAddCmd.Flags().StringVar(&itemsFlags.contentFile, "content-file", "", "read the body from a file (- for stdin)")
	itemsAddCmd.Flags().StringVar(&itemsFlags.excerpt, "excerpt", "", "item excerpt")
	itemsAddCmd.Flags().StringSliceVar(&itemsFlags.categories, "category", nil, "initial category (repeatable)")
	itemsAddCmd.Flags().StringSliceVar(&itemsFlags.tags, "tag", nil, "initial tag (repeatable)")
	_ = itemsAddCmd.MarkFlagRequired("title")
	itemsAddCmd.MarkFlagsMutuallyExclusive("content", "content-file")
}

func openContentApp() (*app, content.Store, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	store, err := a.contentStore()
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, store, nil
}

func runItemsAdd(cmd *cobra.Command, args []string) error {
	body := itemsFlags.content
	if itemsFlags.contentFile != "" {
		var data []byte
		var err error
		if itemsFlags.contentFile == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(itemsFlags.contentFile)
		}
		if err != nil {
			return fmt.Errorf("failed to read content: %w", err)
		}
		body = string(data)
	}

	a, store, err := openContentApp()
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := store.AddItem(cmd.Context(), content.NewItem{
		Title:      itemsFlags.title,
		Content:    body,
		Excerpt:    itemsFlags.excerpt,
		Status:     content.StatusDraft,
		Categories: itemsFlags.categories,
		Tags:       itemsFlags.tags,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added draft item %d\n", item.ID)
	return nil
}

func runItemsList(cmd *cobra.Command, args []string) error {
	a, store, err := openContentApp()
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := store.DraftItems(cmd.Context())
	if err != nil {
		return err
	}

	rows := make(itemTable, 0, len(items))
	for _, item := range items {
		row, err := describeItem(cmd, store, item)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return render(cmd, rows)
}

func parseItemID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("item id must be an integer, got %q", arg)
	}
	return id, nil
}

func runItemsShow(cmd *cobra.Command, args []string) error {
	id, err := parseItemID(args[0])
	if err != nil {
		return err
	}

	a, store, err := openContentApp()
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := store.Item(cmd.Context(), id)
	if err != nil {
		return err
	}
	row, err := describeItem(cmd, store, item)
	if err != nil {
		return err
	}
	return render(cmd, itemTable{row})
}

func runItemsRelated(cmd *cobra.Command, args []string) error {
	id, err := parseItemID(args[0])
	if err != nil {
		return err
	}
	if itemsFlags.limit < 0 {
		return fmt.Errorf("--limit must be zero or positive, got %d", itemsFlags.limit)
	}

	a, store, err := openContentApp()
	if err != nil {
		return err
	}
	defer a.Close()

	related, err := store.RelatedItems(cmd.Context(), id)
	if err != nil {
		return err
	}
	if itemsFlags.limit > 0 && len(related) > itemsFlags.limit {
		related = related[:itemsFlags.limit]
	}
	return render(cmd, relatedTable(related))
}

func describeItem(cmd *cobra.Command, store content.Store, item content.Item) (itemRow, error) {
	ctx := cmd.Context()
	row := itemRow{ID: item.ID, Title: item.Title, Status: item.Status}

	for _, tax := range []content.Taxonomy{content.TaxonomyCategory, content.TaxonomyTag} {
		terms, err := store.ItemTerms(ctx, item.ID, tax)
		if err != nil {
			return itemRow{}, err
		}
		names := make([]string, len(terms))
		for i, t := range terms {
			names[i] = t.Name
		}
		if tax == content.TaxonomyCategory {
			row.Categories = names
		} else {
			row.Tags = names
		}
	}
	return row, nil
}
