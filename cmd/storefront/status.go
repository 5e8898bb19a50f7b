package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrey-berenda/storefront/internal/pkg/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status <checkout-request-id>",
	Short: "Ask the backend once for the status of a payment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		resp, err := application.Backend.PaymentStatus(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("status: %s\n", resp.PaymentStatus())
		if resp.OrderID != "" {
			fmt.Printf("order: %s\n", resp.OrderID)
		}
		if resp.Error != "" {
			fmt.Printf("error: %s\n", resp.Error)
		}

		rec, err := application.Store.PaymentGet(ctx, args[0])
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil
		case err != nil:
			return err
		}
		fmt.Printf("recorded: %s after %d attempts, %d KES from %s\n", rec.Status, rec.Attempts, rec.Amount, rec.Phone)
		return nil
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List recorded payments that never reached a final status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		payments, err := application.Store.PaymentsPending(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "REQUEST\tPHONE\tAMOUNT\tCREATED")
		for _, p := range payments {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.RequestID, p.Phone, p.Amount, p.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}
