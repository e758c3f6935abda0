package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fabianshop/storefront/internal/platform"
	"github.com/fabianshop/storefront/pkg/adapters/fs"
	"github.com/fabianshop/storefront/pkg/core"
	"github.com/fabianshop/storefront/pkg/shop"
)

var (
	gitless      bool
	showJSON     bool
	showCategory string
	showFeatured bool
	historyLimit int
	orderPhone   string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect or initialize the product catalog",
}

// catalogInitCmd creates a local catalog working tree.
var catalogInitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a local catalog (git init + empty products.json)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		_, err := platform.Open(dir,
			platform.WithAdapter("fs"),
			platform.WithAutoInit(true),
			platform.WithVersioning(!gitless),
			platform.WithLogger(slog.Default()),
		)
		if err != nil {
			fatal("Failed to initialize catalog", err)
		}

		fmt.Println("Initialized product catalog in", platform.ResolveCatalogPath(dir, false))
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the products of the catalog",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService(loadConfig())
		c, err := svc.Catalog(context.Background())
		if err != nil {
			fatal("Failed to read catalog", err)
		}

		products := c.Products
		if showCategory != "" {
			cat := core.Category(showCategory)
			if cat != core.CategoryAll && !cat.Valid() {
				fatal("Invalid category", fmt.Errorf("%q", showCategory))
			}
			products = shop.Filter(products, cat)
		}
		if showFeatured {
			products = shop.Featured(products)
		}

		if showJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(core.Catalog{Products: products}); err != nil {
				fatal("Failed to encode catalog", err)
			}
			return
		}

		for _, p := range products {
			star := " "
			if p.Featured {
				star = "*"
			}
			fmt.Printf("%s %-6s %-40s € %s\n", star, p.ID, p.Name, p.Price)
		}
		fmt.Printf("\n%d products, total € %s\n", len(products), shop.FormatPrice(shop.Total(products)))
	},
}

var catalogNextIDCmd = &cobra.Command{
	Use:   "next-id",
	Short: "Print the suggested id for a new product",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService(loadConfig())
		c, err := svc.Catalog(context.Background())
		if err != nil {
			fatal("Failed to read catalog", err)
		}
		fmt.Println(shop.NextID(c))
	},
}

var catalogHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the change notes of a local catalog",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService(loadConfig())
		repo, ok := svc.Store().(*fs.Repository)
		if !ok {
			fatal("History is unavailable", fmt.Errorf("store is not a local catalog"))
		}

		notes, err := repo.History(context.Background(), historyLimit)
		if err != nil {
			fatal("Failed to read history", err)
		}
		for _, n := range notes {
			fmt.Println(n)
			fmt.Println()
		}
	},
}

var catalogOrderCmd = &cobra.Command{
	Use:   "order-link [id...]",
	Short: "Print the WhatsApp enquiry link for the given products",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openService(loadConfig())
		c, err := svc.Catalog(context.Background())
		if err != nil {
			fatal("Failed to read catalog", err)
		}

		var items []core.Product
		for _, id := range args {
			p, ok := c.Find(id)
			if !ok {
				fatal("Unknown product", fmt.Errorf("%w: %s", core.ErrProductNotFound, id))
			}
			items = append(items, p)
		}
		fmt.Println(shop.OrderLink(orderPhone, items))
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogInitCmd, catalogShowCmd, catalogNextIDCmd, catalogHistoryCmd, catalogOrderCmd)

	catalogInitCmd.Flags().BoolVar(&gitless, "gitless", false, "Do not create a git repository")
	catalogShowCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
	catalogShowCmd.Flags().StringVar(&showCategory, "category", "", "Filter products by category")
	catalogShowCmd.Flags().BoolVar(&showFeatured, "featured", false, "Only featured products")
	catalogHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of changes to show")
	catalogOrderCmd.Flags().StringVar(&orderPhone, "phone", os.Getenv("SHOP_WHATSAPP"), "Shop WhatsApp number in international format")
	catalogOrderCmd.MarkFlagRequired("phone")
}
