package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fabianshop/storefront/internal/config"
	"github.com/fabianshop/storefront/pkg/client"
	"github.com/fabianshop/storefront/pkg/core"
	"github.com/fabianshop/storefront/pkg/httpapi"
)

var (
	productFile string
	serverURL   string
	actor       string
)

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Add, update or delete products",
	Long: `Edit the catalog either directly through the configured store or, with
--server, through a running storefront API. Both paths use ADMIN_API_KEY.`,
}

var productAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a product from a JSON file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		d := readDraft()
		cfg := loadConfig()
		ctx := core.WithActor(context.Background(), actor)

		if serverURL != "" {
			p, err := core.Validate(d)
			if err != nil {
				fatal("Invalid product", err)
			}
			res, err := newClient(cfg).Create(ctx, p)
			if err != nil {
				fatal("Failed to add product", err)
			}
			fmt.Printf("%s (%s)\n", res.Message, res.ProductID)
			return
		}

		id, err := openService(cfg).Create(ctx, cfg.Auth.APIKey, d)
		if err != nil {
			fatal("Failed to add product", err)
		}
		fmt.Printf("Product added successfully (%s)\n", id)
	},
}

var productUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace a product with the contents of a JSON file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		d := readDraft()
		cfg := loadConfig()
		ctx := core.WithActor(context.Background(), actor)

		if serverURL != "" {
			p, err := core.Validate(d)
			if err != nil {
				fatal("Invalid product", err)
			}
			res, err := newClient(cfg).Update(ctx, p)
			if err != nil {
				fatal("Failed to update product", err)
			}
			fmt.Printf("%s (%s)\n", res.Message, res.ProductID)
			return
		}

		if err := openService(cfg).Update(ctx, cfg.Auth.APIKey, d); err != nil {
			fatal("Failed to update product", err)
		}
		fmt.Printf("Product updated successfully (%v)\n", d["id"])
	},
}

var productDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a product from the catalog",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		cfg := loadConfig()
		ctx := core.WithActor(context.Background(), actor)

		if serverURL != "" {
			res, err := newClient(cfg).Delete(ctx, id)
			if err != nil {
				fatal("Failed to delete product", err)
			}
			fmt.Printf("Product deleted: %s %s\n", res.ProductID, res.ProductName)
			return
		}

		removed, err := openService(cfg).Delete(ctx, cfg.Auth.APIKey, id)
		if err != nil {
			fatal("Failed to delete product", err)
		}
		fmt.Printf("Product deleted: %s %s\n", removed.ID, removed.Name)
	},
}

func init() {
	rootCmd.AddCommand(productCmd)
	productCmd.AddCommand(productAddCmd, productUpdateCmd, productDeleteCmd)

	productCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Base URL of a running storefront API")
	productCmd.PersistentFlags().StringVar(&actor, "actor", core.DefaultActor, "Name recorded in the change note")
	for _, c := range []*cobra.Command{productAddCmd, productUpdateCmd} {
		c.Flags().StringVarP(&productFile, "file", "f", "", "Product JSON file, - for stdin")
		c.MarkFlagRequired("file")
	}
}

// readDraft reads the product payload named by --file.
func readDraft() core.Draft {
	var r io.Reader = os.Stdin
	if productFile != "-" {
		f, err := os.Open(productFile)
		if err != nil {
			fatal("Failed to open product file", err)
		}
		defer f.Close()
		r = f
	}

	d, err := core.DecodeDraft(r)
	if err != nil {
		fatal("Failed to read product", err)
	}
	return d
}

func newClient(cfg config.Config) *client.Client {
	scheme, err := httpapi.ParseScheme(cfg.Auth.Scheme)
	if err != nil {
		fatal("Invalid auth scheme", err)
	}
	return client.New(serverURL,
		client.WithAPIKey(cfg.Auth.APIKey),
		client.WithScheme(scheme),
		client.WithLogger(slog.Default()),
	)
}
