package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHolidaysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "Производственный календарь",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "load <file>",
		Short: "Загрузить праздники из JSON календаря, заменив данные за год",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			count, err := a.nonWorkingDay.LoadFromJSON(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d non-working days\n", count)
			return nil
		},
	})
	return cmd
}
