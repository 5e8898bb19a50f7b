package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrey-berenda/storefront/internal/pkg/app"
	"github.com/andrey-berenda/storefront/internal/pkg/checkout"
)

var (
	checkoutPhone    string
	checkoutPassword string
	checkoutItems    []string
)

var checkoutCmd = &cobra.Command{
	Use:     "checkout",
	Short:   "Buy items and confirm the M-Pesa STK push on your phone",
	Example: `  storefront checkout --phone 0712345678 --password secret --item p-1=2 --item p-7=1`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		items, err := app.ParseItems(checkoutItems)
		if err != nil {
			return err
		}

		sess, err := application.SignIn(ctx, checkoutPhone, checkoutPassword)
		if err != nil {
			return err
		}
		catalog, err := application.Catalog(ctx)
		if err != nil {
			return err
		}
		if err = app.FillCart(sess, catalog, items); err != nil {
			return err
		}

		c, err := application.Checkout.Start(ctx, sess, nil)
		if err != nil {
			return err
		}
		fmt.Printf("Sent a payment request of %d KES to %s. Enter your M-Pesa PIN on your phone.\n",
			c.Request.Amount, c.Request.Phone)

		r, err := c.Wait(ctx)
		if errors.Is(err, checkout.ErrStopped) || ctx.Err() != nil {
			c.Cancel()
			fmt.Printf("Stopped waiting. Check later with: storefront status %s\n", c.Request.RequestID)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(r.Message)
		if !r.Paid() {
			return fmt.Errorf("payment %s: %s", r.RequestID, r.Status)
		}
		return nil
	},
}

func init() {
	checkoutCmd.Flags().StringVar(&checkoutPhone, "phone", "", "M-Pesa phone number")
	checkoutCmd.Flags().StringVar(&checkoutPassword, "password", "", "account password")
	checkoutCmd.Flags().StringArrayVar(&checkoutItems, "item", nil, "product=quantity, repeatable")
	_ = checkoutCmd.MarkFlagRequired("phone")
	_ = checkoutCmd.MarkFlagRequired("password")
}
