package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	productsQuery    string
	productsCategory string
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List products, optionally filtered by name or category",
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := application.Catalog(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE (KES)\tMOQ\tSTOCK")
		for _, p := range catalog.Filter(productsQuery, productsCategory) {
			stock := "yes"
			if !p.InStock {
				stock = "no"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", p.ID, p.Name, p.Category, p.Price, p.MinQuantity(), stock)
		}
		return w.Flush()
	},
}

func init() {
	productsCmd.Flags().StringVarP(&productsQuery, "query", "q", "", "name contains")
	productsCmd.Flags().StringVarP(&productsCategory, "category", "c", "", "category")
}
