package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tunneld/pkg/types"
)

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run a single reconcile pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)
			rec, _ := buildReconciler(cfg, log)
			res, err := rec.Reconcile(context.Background())
			if err != nil {
				return err
			}
			if res.Message != "" {
				fmt.Printf("%s: %s\n", res.Status, res.Message)
			} else {
				fmt.Println(res.Status)
			}
			if res.Status == types.StatusBlocked {
				return fmt.Errorf("reconciliation blocked")
			}
			return nil
		},
	}
}
