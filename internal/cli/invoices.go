package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/invoicedesk/internal/domain"
	"github.com/andy/invoicedesk/internal/export"
	"github.com/spf13/cobra"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Manage invoices",
	Long:  `List, create, update, delete and export invoices on the invoice server.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := context.Background()

		page, _ := cmd.Flags().GetInt("page")
		customer, _ := cmd.Flags().GetString("customer")

		p, err := appInstance.InvoiceService.ListPage(ctx, page, customer)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		if len(p.Results) == 0 {
			fmt.Fprintln(out, "No invoices found")
			return nil
		}

		fmt.Fprintf(out, "%-6s %-15s %-25s %-12s %14s %5s\n", "ID", "Number", "Customer", "Date", "Total", "Items")
		fmt.Fprintln(out, strings.Repeat("-", 82))

		for _, inv := range p.Results {
			fmt.Fprintf(out, "%-6d %-15s %-25s %-12s %14s %5d\n",
				inv.ID,
				truncate(inv.InvoiceNumber, 15),
				truncate(inv.CustomerName, 25),
				inv.Date,
				export.FormatMoney(inv.TotalAmount),
				len(inv.Details),
			)
		}

		fmt.Fprintf(out, "\nPage %d of %d (%d invoice(s))\n",
			max(page, 1), domain.TotalPages(p.Count, appInstance.Config.API.PageSize), p.Count)
		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show invoice details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := context.Background()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		customer, _ := cmd.Flags().GetString("customer")

		inv, err := appInstance.InvoiceService.Find(ctx, id, customer)
		if err != nil {
			return fmt.Errorf("failed to get invoice: %w", err)
		}

		fmt.Fprint(out, export.RenderText(inv))
		return nil
	},
}

var createFlags draftFlags

var invoicesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new invoice",
	Example: `  invoicedesk invoices create --number INV-001 --customer "Acme" --date today \
    --item "Consulting:10:120" --item "Hosting:1:25.50"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := context.Background()

		draft := domain.NewDraft()
		if err := createFlags.apply(cmd, draft); err != nil {
			return err
		}

		inv, err := appInstance.InvoiceService.Save(ctx, nil, draft)
		if err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		fmt.Fprintf(out, "✓ Invoice created: %s (ID %d)\n", inv.InvoiceNumber, inv.ID)
		fmt.Fprintf(out, "  Customer: %s\n", inv.CustomerName)
		fmt.Fprintf(out, "  Total: %s\n", export.FormatMoney(export.Total(inv)))
		return nil
	},
}

var updateFlags draftFlags

var invoicesUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update an invoice; fields not given keep their current values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := context.Background()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		current, err := appInstance.InvoiceService.Find(ctx, id, "")
		if err != nil {
			return fmt.Errorf("failed to load invoice: %w", err)
		}

		draft := domain.DraftFromInvoice(current)
		if err := updateFlags.apply(cmd, draft); err != nil {
			return err
		}

		inv, err := appInstance.InvoiceService.Save(ctx, &id, draft)
		if err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}

		fmt.Fprintf(out, "✓ Invoice updated: %s\n", inv.InvoiceNumber)
		fmt.Fprintf(out, "  Total: %s\n", export.FormatMoney(export.Total(inv)))
		return nil
	},
}

var invoicesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := context.Background()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirmPrompt(cmd, fmt.Sprintf("Delete invoice #%d?", id)) {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}

		if err := appInstance.InvoiceService.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}

		fmt.Fprintf(out, "✓ Invoice #%d deleted\n", id)
		return nil
	},
}

var invoicesExportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export an invoice as text or PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := context.Background()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		customer, _ := cmd.Flags().GetString("customer")
		formatStr, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")

		format, err := export.ParseFormat(formatStr)
		if err != nil {
			return err
		}

		inv, err := appInstance.InvoiceService.Find(ctx, id, customer)
		if err != nil {
			return fmt.Errorf("failed to load invoice: %w", err)
		}

		path, err := appInstance.Exporter.Export(inv, format, outPath)
		if err != nil {
			return fmt.Errorf("failed to export invoice: %w", err)
		}

		fmt.Fprintf(out, "✓ Invoice %s exported to %s\n", inv.InvoiceNumber, path)
		return nil
	},
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesCreateCmd)
	invoicesCmd.AddCommand(invoicesUpdateCmd)
	invoicesCmd.AddCommand(invoicesDeleteCmd)
	invoicesCmd.AddCommand(invoicesExportCmd)

	// List flags
	invoicesListCmd.Flags().Int("page", 1, "Page number")
	invoicesListCmd.Flags().String("customer", "", "Filter by customer name")

	// Lookup flags
	invoicesShowCmd.Flags().String("customer", "", "Narrow the lookup by customer name")
	invoicesExportCmd.Flags().String("customer", "", "Narrow the lookup by customer name")

	createFlags.register(invoicesCreateCmd)
	updateFlags.register(invoicesUpdateCmd)

	invoicesDeleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	invoicesExportCmd.Flags().String("format", "txt", "Export format (txt, pdf)")
	invoicesExportCmd.Flags().StringP("out", "o", "", "Output file (defaults to the export directory)")
}
