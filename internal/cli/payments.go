package cli

import (
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/smartretail/storefront/internal/core/domain"
)

func (rt *runtime) paymentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payments",
		Aliases: []string{"payment"},
		Short:   "Pay for orders and review payments",
	}

	var initiation domain.PaymentInitiation
	initiate := &cobra.Command{
		Use:   "initiate",
		Short: "Start an online payment for an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rt.app.Payments.Initiate(cmd.Context(), initiation)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	initiate.Flags().IntVar(&initiation.OrderID, "order", 0, "order id")
	initiate.Flags().Float64Var(&initiation.Amount, "amount", 0, "amount to pay")
	initiate.Flags().StringVar(&initiation.Provider, "provider", "", "payment provider (mock, mpesa, tigo, airtel, stripe)")
	cmd.AddCommand(initiate)

	var offline domain.OfflinePayment
	var attachment string
	submit := &cobra.Command{
		Use:   "offline",
		Short: "Submit a bank transfer or cash payment for verification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := offline
			if attachment != "" {
				f, err := os.Open(attachment)
				if err != nil {
					return err
				}
				defer f.Close()
				in.Attachment = &domain.Attachment{
					Filename:    filepath.Base(attachment),
					ContentType: contentTypeOf(attachment),
					Content:     f,
				}
			}
			res, err := rt.app.Payments.SubmitOffline(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	submit.Flags().IntVar(&offline.OrderID, "order", 0, "order id")
	submit.Flags().StringVar(&offline.Method, "method", domain.MethodBankTransfer, "bank_transfer or cash")
	submit.Flags().StringVar(&offline.Reference, "reference", "", "transfer or receipt reference")
	submit.Flags().Float64Var(&offline.Amount, "amount", 0, "amount paid")
	submit.Flags().StringVar(&attachment, "attachment", "", "optional proof of payment file")
	cmd.AddCommand(submit)

	var reject bool
	verify := &cobra.Command{
		Use:   "verify ID",
		Short: "Approve (default) or reject an offline payment (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0)
			if err != nil {
				return err
			}
			res, err := rt.app.Payments.Verify(cmd.Context(), id, !reject)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	verify.Flags().BoolVar(&reject, "reject", false, "reject instead of approving")
	cmd.AddCommand(verify)

	cmd.AddCommand(&cobra.Command{
		Use:   "mine",
		Short: "List your payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireSession(); err != nil {
				return err
			}
			res, err := rt.app.Payments.Mine(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	})

	var q domain.PaymentQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "Page through every payment (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rt.app.Payments.All(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	list.Flags().IntVar(&q.Page, "page", 1, "page number")
	list.Flags().StringVar(&q.Status, "status", "", "filter by status")
	list.Flags().StringVar(&q.Channel, "channel", "", "filter by channel (online, offline)")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "get ID",
		Short: "Show one payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0)
			if err != nil {
				return err
			}
			p, err := rt.app.Payments.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "by-order ORDER_ID",
		Short: "List the payments of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args, 0)
			if err != nil {
				return err
			}
			res, err := rt.app.Payments.ByOrder(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show payment totals (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := rt.app.Payments.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	})

	return cmd
}

func contentTypeOf(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
