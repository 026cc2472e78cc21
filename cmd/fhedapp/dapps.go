package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDappsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dapps",
		Short: "Inspect the dApp catalog",
	}
	cmd.AddCommand(newDappsListCmd(), newDappsShowCmd())
	return cmd
}

func newDappsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog dApps",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tADDRESS\tACTIONS\tRESULTS")
			for _, slug := range catalog.Slugs() {
				d, _ := catalog.Get(slug)
				s := d.Summary()
				fmt.Fprintf(tw, "%s\t%s\t%v\t%v\n", s.Slug, s.Address, s.Actions, s.Results)
			}
			return tw.Flush()
		},
	}
}

func newDappsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Print a catalog entry with inputs, bounds and labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			d, err := catalog.Get(args[0])
			if err != nil {
				return err
			}
			return printJSON(d)
		},
	}
}
