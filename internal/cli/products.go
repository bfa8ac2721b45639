package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smartretail/storefront/internal/core/domain"
)

func (rt *runtime) productsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Browse and manage the catalog",
	}

	var name string
	var minPrice, maxPrice float64
	list := &cobra.Command{
		Use:   "list",
		Short: "List products, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := domain.ProductFilter{Name: name}
			if cmd.Flags().Changed("min-price") {
				f.MinPrice = &minPrice
			}
			if cmd.Flags().Changed("max-price") {
				f.MaxPrice = &maxPrice
			}
			products, err := rt.app.Products.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd, products)
		},
	}
	list.Flags().StringVar(&name, "name", "", "case-insensitive name filter")
	list.Flags().Float64Var(&minPrice, "min-price", 0, "minimum price")
	list.Flags().Float64Var(&maxPrice, "max-price", 0, "maximum price")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "get ID",
		Short: "Show one product with its stock level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0)
			if err != nil {
				return err
			}
			p, err := rt.app.Products.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, productView{Product: *p, Level: p.StockLevel(), CanAddToCart: p.CanAddToCart()})
		},
	})

	var in domain.ProductInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a product (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rt.app.Products.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	productFlags(create.Flags(), &in)
	cmd.AddCommand(create)

	var patch domain.ProductInput
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change product fields (admin); unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0)
			if err != nil {
				return err
			}
			current, err := rt.app.Products.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			merged := mergeProduct(*current, patch, cmd.Flags())
			res, err := rt.app.Products.Update(cmd.Context(), id, merged)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	productFlags(update.Flags(), &patch)
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Remove a product (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0)
			if err != nil {
				return err
			}
			res, err := rt.app.Products.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "bulk FILE",
		Short: "Add every product of a JSON array file (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var items []domain.ProductInput
			if err := json.Unmarshal(raw, &items); err != nil {
				return fmt.Errorf("read %s: expected a JSON array of products: %w", args[0], err)
			}
			res, err := rt.app.Products.BulkCreate(cmd.Context(), items)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stock ID DELTA",
		Short: "Adjust stock by a signed quantity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0)
			if err != nil {
				return err
			}
			var delta int
			if _, err := fmt.Sscan(args[1], &delta); err != nil {
				return fmt.Errorf("invalid delta %q", args[1])
			}
			res, err := rt.app.Products.UpdateStock(cmd.Context(), id, delta)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	})

	return cmd
}

// productView adds the derived stock presentation to a product.
type productView struct {
	domain.Product
	Level        domain.StockLevel `json:"stock_level"`
	CanAddToCart bool              `json:"can_add_to_cart"`
}

func productFlags(fs *pflag.FlagSet, in *domain.ProductInput) {
	fs.StringVar(&in.Name, "name", "", "product name")
	fs.StringVar(&in.Description, "description", "", "product description")
	fs.Float64Var(&in.Price, "price", 0, "unit price")
	fs.IntVar(&in.Stock, "stock", 0, "units in stock")
	fs.StringVar(&in.ImageURL, "image-url", "", "image URL")
}

// mergeProduct overlays the flags that were set on the current product.
func mergeProduct(cur domain.Product, patch domain.ProductInput, fs *pflag.FlagSet) domain.ProductInput {
	out := domain.ProductInput{
		Name:        cur.Name,
		Description: cur.Description,
		Price:       cur.Price,
		Stock:       cur.Stock,
		ImageURL:    cur.ImageURL,
	}
	if fs.Changed("name") {
		out.Name = patch.Name
	}
	if fs.Changed("description") {
		out.Description = patch.Description
	}
	if fs.Changed("price") {
		out.Price = patch.Price
	}
	if fs.Changed("stock") {
		out.Stock = patch.Stock
	}
	if fs.Changed("image-url") {
		out.ImageURL = patch.ImageURL
	}
	return out
}
