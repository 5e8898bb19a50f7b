package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loginPhone    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check account credentials against the backend",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sess, err := application.SignIn(cmd.Context(), loginPhone, loginPassword)
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s (%s), M-Pesa number %s\n", sess.User.Name, sess.User.ID, sess.User.Phone)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginPhone, "phone", "", "phone number")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("phone")
	_ = loginCmd.MarkFlagRequired("password")
}
