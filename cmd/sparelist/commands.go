package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kalambet/sparelist/internal/api"
	"github.com/kalambet/sparelist/internal/config"
	"github.com/kalambet/sparelist/internal/form"
	"github.com/kalambet/sparelist/internal/sheet"
	"github.com/kalambet/sparelist/internal/storage"
	"github.com/kalambet/sparelist/internal/worklist"
)

// --- catalog ---

var catalogCmd = &cobra.Command{
	Use:   "catalog [spare]",
	Short: "List spare types, or the records of one spare type",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		spare := ""
		if len(args) == 1 {
			spare = args[0]
		}
		return listCatalog(cmd.Context(), client, os.Stdout, spare)
	},
}

func listCatalog(ctx context.Context, c *apiClient, w io.Writer, spare string) error {
	resp, err := c.get(ctx, "/catalog")
	if err != nil {
		return err
	}
	var groups []api.CatalogGroup
	if err := decodeJSON(resp, &groups); err != nil {
		return err
	}

	if spare == "" {
		for _, g := range groups {
			fmt.Fprintf(w, "%s\t%d\n", g.Spare, len(g.Records))
		}
		return nil
	}

	for _, g := range groups {
		if g.Spare != spare {
			continue
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SIZE\tRATING\tSCHEDULE\tMATERIAL\tAMOC CODE")
		for _, r := range g.Records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Size, r.Rating, r.Schedule, r.Material, r.AMOCCode)
		}
		return tw.Flush()
	}
	return fmt.Errorf("unknown spare type %q", spare)
}

// --- form ---

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Show the current selection and the values available at each level",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/form")
		if err != nil {
			return err
		}
		var snap form.Snapshot
		if err := decodeJSON(resp, &snap); err != nil {
			return err
		}
		printSnapshot(snap)
		return nil
	},
}

func printSnapshot(snap form.Snapshot) {
	printChoices("Spare", snap.Selection.Spare, snap.Options.Spares)
	printChoices("Size", snap.Selection.Size, snap.Options.Sizes)
	printChoices("Rating", snap.Selection.Rating, snap.Options.Ratings)
	printChoices("Schedule", snap.Selection.Schedule, snap.Options.Schedules)
	if r := snap.Options.Record; r != nil {
		printStatus("Record", "%s (%s)", r.ShortDesc, r.AMOCCode)
	}
	if snap.Meta.AssetTag != "" {
		printStatus("Asset tag", "%s", snap.Meta.AssetTag)
	}
	if snap.StagedFile != "" {
		printStatus("Staged file", "%s", snap.StagedFile)
	}
	printStatus("Worklist", "%d item(s)", snap.Items)
}

// --- select ---

var selectCmd = &cobra.Command{
	Use:   "select <spare|size|rating|schedule> <value>",
	Short: "Set one level of the selection; lower levels are cleared",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		snap, err := selectField(cmd.Context(), client, args[0], args[1])
		if err != nil {
			return err
		}
		printSnapshot(snap)
		return nil
	},
}

func selectField(ctx context.Context, c *apiClient, field, value string) (form.Snapshot, error) {
	resp, err := c.put(ctx, "/form/selection", map[string]string{"field": field, "value": value})
	if err != nil {
		return form.Snapshot{}, err
	}
	var snap form.Snapshot
	if err := decodeJSON(resp, &snap); err != nil {
		return form.Snapshot{}, err
	}
	return snap, nil
}

// --- add ---

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Append the current selection to the worklist",
	Long: `Append the current selection to the worklist.

Examples:
  sparelist select spare "GATE VALVE"
  sparelist select size '2"'
  sparelist select rating 150#
  sparelist add --tag P-101A --quantity 2 --position 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, _ := cmd.Flags().GetString("tag")
		quantity, _ := cmd.Flags().GetString("quantity")
		position, _ := cmd.Flags().GetString("position")

		if tag == "" {
			printWarning("an asset tag is required (--tag)")
			return fmt.Errorf("missing asset tag")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		e, err := addItem(cmd.Context(), client, worklist.Meta{AssetTag: tag, Quantity: quantity, Position: position})
		if err != nil {
			return err
		}
		printSuccess("Added %s %s for %s", e.Spare, e.AMOCCode, e.AssetTag)
		return nil
	},
}

func init() {
	addCmd.Flags().String("tag", "", "asset tag (required)")
	addCmd.Flags().String("quantity", "", "quantity (default 0)")
	addCmd.Flags().String("position", "", "position (default 0)")
}

func addItem(ctx context.Context, c *apiClient, meta worklist.Meta) (worklist.Entry, error) {
	resp, err := c.put(ctx, "/form/meta", meta)
	if err != nil {
		return worklist.Entry{}, err
	}
	var snap form.Snapshot
	if err := decodeJSON(resp, &snap); err != nil {
		return worklist.Entry{}, err
	}

	resp, err = c.post(ctx, "/items", nil)
	if err != nil {
		return worklist.Entry{}, err
	}
	var e worklist.Entry
	if err := decodeJSON(resp, &e); err != nil {
		return worklist.Entry{}, err
	}
	return e, nil
}

// --- items ---

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List the worklist",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		return listItems(cmd.Context(), client, os.Stdout, asJSON)
	},
}

func init() {
	itemsCmd.Flags().Bool("json", false, "print the raw JSON entries")
}

func listItems(ctx context.Context, c *apiClient, w io.Writer, asJSON bool) error {
	resp, err := c.get(ctx, "/items")
	if err != nil {
		return err
	}
	var items []worklist.Entry
	if err := decodeJSON(resp, &items); err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	if len(items) == 0 {
		printWarning("worklist is empty")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tASSET TAG\tSPARE\tSIZE\tRATING\tSCHEDULE\tQTY\tPOS\tAMOC CODE")
	for i, e := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i, e.AssetTag, e.Spare, e.Size, e.Rating, e.Schedule, e.Quantity, e.Position, e.AMOCCode)
	}
	return tw.Flush()
}

// --- delete ---

var deleteCmd = &cobra.Command{
	Use:   "delete <index>",
	Short: "Delete a worklist entry by its 0-based index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("index must be an integer: %w", err)
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		deleted, err := deleteItem(cmd.Context(), client, index)
		if err != nil {
			return err
		}
		if !deleted {
			printWarning("no item at index %d", index)
			return nil
		}
		printSuccess("Deleted item %d", index)
		return nil
	},
}

func deleteItem(ctx context.Context, c *apiClient, index int) (bool, error) {
	resp, err := c.delete(ctx, "/items/"+strconv.Itoa(index))
	if err != nil {
		return false, err
	}
	var result struct {
		Deleted bool `json:"deleted"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return false, err
	}
	return result.Deleted, nil
}

// --- reset ---

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the worklist (or, with --form, only the current selection)",
	RunE: func(cmd *cobra.Command, args []string) error {
		formOnly, _ := cmd.Flags().GetBool("form")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if formOnly {
			resp, err := client.post(cmd.Context(), "/form/reset", nil)
			if err != nil {
				return err
			}
			var snap form.Snapshot
			if err := decodeJSON(resp, &snap); err != nil {
				return err
			}
			printSuccess("Selection cleared")
			return nil
		}

		resp, err := client.delete(cmd.Context(), "/items")
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Worklist cleared")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("form", false, "clear only the selection and metadata")
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the worklist to a new spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		n, err := exportTo(cmd.Context(), client, output)
		if err != nil {
			return err
		}
		printSuccess("Wrote %s (%d bytes)", output, n)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", sheet.ExportFilename, "output path")
}

func exportTo(ctx context.Context, c *apiClient, output string) (int64, error) {
	resp, err := c.get(ctx, "/export")
	if err != nil {
		return 0, err
	}
	return saveFile(resp, output)
}

// --- merge ---

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge the worklist into an existing spreadsheet",
	Long: `Merge the worklist into an existing spreadsheet.

Entries already present in the first sheet are skipped; the rest are
appended and numbered after the existing rows.

Examples:
  sparelist merge --file site_a.xlsx
  sparelist merge --file site_a.xlsx --output site_a_updated.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		output, _ := cmd.Flags().GetString("output")

		if file == "" {
			printWarning("select a spreadsheet to merge into (--file)")
			return fmt.Errorf("missing --file")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		printStep("Uploading %s", file)
		res, err := mergeInto(cmd.Context(), client, file, output)
		if err != nil {
			return err
		}
		if res.Duplicates > 0 {
			printWarning("%d duplicate item(s) skipped", res.Duplicates)
		}
		printSuccess("Wrote %s (%d item(s) appended)", output, res.Appended)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringP("file", "f", "", "spreadsheet (.xlsx) to merge into")
	mergeCmd.Flags().StringP("output", "o", sheet.MergeFilename, "output path")
}

func mergeInto(ctx context.Context, c *apiClient, file, output string) (sheet.MergeResult, error) {
	resp, err := c.upload(ctx, "/merge/file", file)
	if err != nil {
		return sheet.MergeResult{}, err
	}
	var staged map[string]any
	if err := decodeJSON(resp, &staged); err != nil {
		return sheet.MergeResult{}, err
	}

	resp, err = c.post(ctx, "/merge", nil)
	if err != nil {
		return sheet.MergeResult{}, err
	}
	res := sheet.MergeResult{
		Appended:   headerInt(resp, "X-Appended"),
		Duplicates: headerInt(resp, "X-Duplicates"),
	}
	if _, err := saveFile(resp, output); err != nil {
		return sheet.MergeResult{}, err
	}
	return res, nil
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List produced spreadsheets",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return listHistory(cmd.Context(), client, os.Stdout, limit)
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of records")
}

func listHistory(ctx context.Context, c *apiClient, w io.Writer, limit int) error {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	resp, err := c.get(ctx, "/history?"+q.Encode())
	if err != nil {
		return err
	}
	var recs []storage.ExportRecord
	if err := decodeJSON(resp, &recs); err != nil {
		return err
	}
	if len(recs) == 0 {
		printWarning("nothing exported yet")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tKIND\tFILE\tROWS\tDUPLICATES")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Kind, r.Filename, r.Rows, r.Duplicates)
	}
	return tw.Flush()
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tVALUE\tENV")
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", k.Key, k.Value, k.EnvVar)
		}
		return tw.Flush()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(key, value); err != nil {
			return err
		}
		printSuccess("Set %s = %s (restart the server to apply)", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
