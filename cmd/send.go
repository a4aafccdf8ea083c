package cmd

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/iplan/cellact/internal/app"
	"github.com/iplan/cellact/internal/logger"
	"github.com/iplan/cellact/internal/model"
	"github.com/spf13/cobra"
)

var sendReq model.SendRequest

var sendCmd = &cobra.Command{
	Use:   "send [phone...]",
	Short: "Send one SMS to the given phones",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, loc, err := loadConfig()
		if err != nil {
			return err
		}

		gw, err := app.NewGateway(cfg, loc, logger.Log)
		if err != nil {
			return err
		}

		req := sendReq
		for _, a := range args {
			for _, p := range strings.Split(a, ",") {
				if p = strings.TrimSpace(p); p != "" {
					req.Phones = append(req.Phones, p)
				}
			}
		}

		res, err := gw.Sender.Send(context.Background(), req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendReq.Text, "text", "", "message text")
	sendCmd.Flags().StringVar(&sendReq.SenderName, "sender-name", "", "latin sender name (one way)")
	sendCmd.Flags().StringVar(&sendReq.SenderNumber, "sender-number", "", "reply-to number")
	sendCmd.Flags().StringVar(&sendReq.DeliveryNotificationURL, "notify-url", "", "delivery notification push url")
	_ = sendCmd.MarkFlagRequired("text")
}
