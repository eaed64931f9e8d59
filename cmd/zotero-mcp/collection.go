// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var collectionCmd = &cobra.Command{
	Use:   "collection <key>",
	Short: "Print the ancestry of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := newService()
		if err != nil {
			return err
		}
		defer closer.Close()

		chain, err := svc.Collection(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, label := range chain {
			fmt.Println(label)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectionCmd)
}
