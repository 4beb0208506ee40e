package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "hrctl",
		Short: "Command line client for the hrlite API",
	}

	root.AddCommand(
		loginCmd(),
		logoutCmd(),
		employeesCmd(),
		payrollCmd(),
		leavesCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
