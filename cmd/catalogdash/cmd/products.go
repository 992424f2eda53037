package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yourorg/catalogdash/internal/models"
	"github.com/yourorg/catalogdash/internal/service"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Print one page of the remote catalog",
	RunE:  runProducts,
}

func init() {
	rootCmd.AddCommand(productsCmd)
	productsCmd.Flags().Int("page", 1, "Page number, starting at 1")
	productsCmd.Flags().Int("limit", 0, "Products per page (defaults to PAGE_SIZE)")
	productsCmd.Flags().StringP("search", "s", "", "Search text")
}

func runProducts(cmd *cobra.Command, _ []string) error {
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")
	search, _ := cmd.Flags().GetString("search")
	if limit <= 0 {
		limit = viper.GetInt("PAGE_SIZE")
	}

	catalog, err := newCatalogClient()
	if err != nil {
		return err
	}
	productSvc := service.NewProductService(catalog, service.Delays{})

	ctx, cancel := context.WithTimeout(context.Background(), catalogTimeout())
	defer cancel()

	result, err := productSvc.ListProducts(ctx, models.ListProductsFilter{
		Page:     page,
		PageSize: limit,
		Search:   search,
	})
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE\tDISCOUNT\tSTOCK")
	for _, p := range result.Products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t$%s\t%s%%\t%d\n",
			p.ID, p.Title, p.Category, p.Price.StringFixed(2), p.DiscountPercentage.String(), p.Stock)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nPage %d of %d (%d products)\n", result.CurrentPage, result.TotalPages, result.Total)
	return nil
}
