package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/smartretail/storefront/internal/core/domain"
)

type reportFlags struct {
	group string
	from  string
	to    string
}

func (f *reportFlags) bind(cmd *cobra.Command, withGroup bool) {
	if withGroup {
		cmd.Flags().StringVar(&f.group, "group", string(domain.GroupDay), "day, week or month")
	}
	cmd.Flags().StringVar(&f.from, "from", "", "first day, YYYY-MM-DD (default 30 days ago)")
	cmd.Flags().StringVar(&f.to, "to", "", "last day, YYYY-MM-DD (default today)")
}

func (rt *runtime) analyticsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Sales reporting",
	}

	var summary reportFlags
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Revenue, orders and items over a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rt.app.Analytics.SalesSummary(cmd.Context(), summary.from, summary.to)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	summary.bind(summaryCmd, false)
	cmd.AddCommand(summaryCmd)

	var window, limit int
	var metric string
	top := &cobra.Command{
		Use:   "top",
		Short: "Best selling products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rt.app.Analytics.TopProducts(cmd.Context(), window, limit, metric)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	top.Flags().IntVar(&window, "window", 30, "days to look back")
	top.Flags().IntVar(&limit, "limit", 10, "number of products")
	top.Flags().StringVar(&metric, "metric", "revenue", "revenue or quantity")
	cmd.AddCommand(top)

	var funnel reportFlags
	funnelCmd := &cobra.Command{
		Use:   "funnel",
		Short: "Order conversion funnel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rt.app.Analytics.ConversionFunnel(cmd.Context(), funnel.from, funnel.to)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	funnel.bind(funnelCmd, false)
	cmd.AddCommand(funnelCmd)

	var horizon, lookback int
	forecast := &cobra.Command{
		Use:   "forecast",
		Short: "Daily revenue forecast",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rt.app.Analytics.Forecast(cmd.Context(), horizon)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	forecast.Flags().IntVar(&horizon, "horizon", 14, "days to forecast")
	cmd.AddCommand(forecast)

	rebuild := &cobra.Command{
		Use:   "rebuild-forecast",
		Short: "Recompute the stored forecast",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rt.app.Analytics.RebuildForecast(cmd.Context(), horizon, lookback)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	rebuild.Flags().IntVar(&horizon, "horizon", 14, "days to forecast")
	rebuild.Flags().IntVar(&lookback, "lookback", 30, "days of history to average")
	cmd.AddCommand(rebuild)

	var report reportFlags
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Sales grouped by day, week or month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rt.app.Analytics.SalesReport(cmd.Context(), domain.ReportGroup(report.group), report.from, report.to)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	report.bind(reportCmd, true)
	cmd.AddCommand(reportCmd)

	var csvFlags reportFlags
	var out string
	var urlOnly bool
	csvCmd := &cobra.Command{
		Use:   "csv",
		Short: "Download the sales report as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			group := domain.ReportGroup(csvFlags.group)
			if urlOnly {
				_, err := cmd.OutOrStdout().Write([]byte(rt.app.Analytics.SalesReportCSVURL(group, csvFlags.from, csvFlags.to) + "\n"))
				return err
			}
			data, err := rt.app.Analytics.DownloadSalesReportCSV(cmd.Context(), group, csvFlags.from, csvFlags.to)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	csvFlags.bind(csvCmd, true)
	csvCmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	csvCmd.Flags().BoolVar(&urlOnly, "url", false, "print the download link only")
	cmd.AddCommand(csvCmd)

	var export reportFlags
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Archive the CSV sales report in the configured report store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exporter, err := rt.app.ReportExporter()
			if err != nil {
				return err
			}
			res, err := exporter.Export(cmd.Context(), domain.ReportGroup(export.group), export.from, export.to)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	export.bind(exportCmd, true)
	cmd.AddCommand(exportCmd)

	var low, stockWindow int
	stock := &cobra.Command{
		Use:   "stock",
		Short: "Stock levels with recent sales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rt.app.Analytics.StockStatus(cmd.Context(), low, stockWindow)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	stock.Flags().IntVar(&low, "low-threshold", 5, "stock at or below this is low")
	stock.Flags().IntVar(&stockWindow, "window", 30, "days of sales to include")
	cmd.AddCommand(stock)

	return cmd
}
