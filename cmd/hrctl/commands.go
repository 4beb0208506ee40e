package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	var username, password, mfaCode string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store a token for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required")
			}

			var resp struct {
				Token string `json:"token"`
			}
			payload := map[string]string{"username": username, "password": password, "mfaCode": mfaCode}
			if err := callAPI(http.MethodPost, "/auth/login", payload, &resp); err != nil {
				return err
			}
			if resp.Token == "" {
				return fmt.Errorf("login succeeded but no token returned")
			}
			if err := saveToken(resp.Token); err != nil {
				return err
			}
			fmt.Println("Login successful. Token stored locally.")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username to authenticate as")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&mfaCode, "mfa-code", "", "TOTP code when MFA is enabled")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current session and remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = callAPI(http.MethodPost, "/auth/logout", nil, nil)
			if err := removeToken(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func employeesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Manage employees",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List employees",
		RunE: func(cmd *cobra.Command, args []string) error {
			var employees []struct {
				ID             string `json:"id"`
				FullName       string `json:"fullName"`
				Email          string `json:"email"`
				JobTitle       string `json:"jobTitle"`
				BaseSalary     string `json:"baseSalary"`
				DepartmentName string `json:"departmentName"`
			}
			if err := callAPI(http.MethodGet, "/employees", nil, &employees); err != nil {
				return err
			}

			rows := make([][]any, 0, len(employees))
			for _, e := range employees {
				rows = append(rows, []any{e.ID, e.FullName, e.Email, e.JobTitle, e.BaseSalary, e.DepartmentName})
			}
			renderTable([]string{"ID", "Name", "Email", "Title", "Base Salary", "Department"}, rows)
			return nil
		},
	})
	return cmd
}

func payrollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payroll",
		Short: "Inspect and trigger payroll runs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "runs",
		Short: "List payroll runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			var runs []struct {
				ID          string `json:"id"`
				PeriodStart string `json:"periodStart"`
				PeriodEnd   string `json:"periodEnd"`
				Status      string `json:"status"`
				CreatedAt   string `json:"createdAt"`
			}
			if err := callAPI(http.MethodGet, "/payroll/runs", nil, &runs); err != nil {
				return err
			}

			rows := make([][]any, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []any{r.ID, r.PeriodStart, r.PeriodEnd, r.Status, r.CreatedAt})
			}
			renderTable([]string{"ID", "Period Start", "Period End", "Status", "Created"}, rows)
			return nil
		},
	})

	var start, end, notes string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Trigger a payroll run for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if start == "" || end == "" {
				return fmt.Errorf("--start and --end are required")
			}

			var run struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			}
			payload := map[string]string{"periodStart": start, "periodEnd": end, "notes": notes}
			if err := callAPI(http.MethodPost, "/payroll/runs", payload, &run); err != nil {
				return err
			}
			fmt.Printf("Payroll run %s posted (status %s).\n", run.ID, run.Status)
			return nil
		},
	}
	runCmd.Flags().StringVar(&start, "start", "", "Period start (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&end, "end", "", "Period end (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&notes, "notes", "", "Optional run notes")
	cmd.AddCommand(runCmd)

	return cmd
}

func leavesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaves",
		Short: "Inspect leave requests",
	}

	var status string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List leave requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/leaves"
			if status != "" {
				path += "?status=" + status
			}

			var requests []struct {
				ID           string `json:"id"`
				EmployeeName string `json:"employeeName"`
				LeaveType    string `json:"leaveType"`
				DateFrom     string `json:"dateFrom"`
				DateTo       string `json:"dateTo"`
				Status       string `json:"status"`
			}
			if err := callAPI(http.MethodGet, path, nil, &requests); err != nil {
				return err
			}

			rows := make([][]any, 0, len(requests))
			for _, l := range requests {
				rows = append(rows, []any{l.ID, l.EmployeeName, l.LeaveType, l.DateFrom, l.DateTo, l.Status})
			}
			renderTable([]string{"ID", "Employee", "Type", "From", "To", "Status"}, rows)
			return nil
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, approved, rejected)")
	cmd.AddCommand(listCmd)

	return cmd
}

func renderTable(headers []string, rows [][]any) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)

	headerRow := table.Row{}
	for _, h := range headers {
		headerRow = append(headerRow, h)
	}
	t.AppendHeader(headerRow)
	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}
	t.Render()
}
