// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

// Command dealctl is the operator tool for dealwatch.
//
//	dealctl check [-deal N]          show why a deal is or is not eligible
//	dealctl process -deal N          run validate-and-process once
//	dealctl webhooks list            list Pipedrive webhooks
//	dealctl webhooks register -url U subscribe to deal updates and additions
//
// Configuration is read exactly as the server reads it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dealwatch/internal/config"
	"github.com/tomtom215/dealwatch/internal/escalation"
	"github.com/tomtom215/dealwatch/internal/logging"
	"github.com/tomtom215/dealwatch/internal/pipedrive"
	"github.com/tomtom215/dealwatch/internal/status"
)

const usage = `usage:
  dealctl check [-deal N]
  dealctl process -deal N
  dealctl webhooks list
  dealctl webhooks register [-url URL]
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "dealctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = "warn"
	logCfg.Format = "console"
	logging.Init(logCfg)

	client := pipedrive.NewClient(&cfg.Pipedrive)

	switch args[0] {
	case "check":
		fs := flag.NewFlagSet("check", flag.ContinueOnError)
		dealID := fs.Int64("deal", cfg.Pipedrive.TestDealID, "deal id")
		if err := fs.Parse(args[1:]); err != nil {
			return errUsage
		}
		return check(ctx, client, cfg, *dealID, out)

	case "process":
		fs := flag.NewFlagSet("process", flag.ContinueOnError)
		dealID := fs.Int64("deal", 0, "deal id")
		if err := fs.Parse(args[1:]); err != nil || *dealID <= 0 {
			return errUsage
		}
		engine, err := escalation.NewEngine(client, cfg, nil, nil)
		if err != nil {
			return err
		}
		outcome, err := engine.Processor.ValidateAndProcess(ctx, *dealID)
		if err != nil {
			return err
		}
		return printJSON(out, outcome)

	case "webhooks":
		return webhooks(ctx, client, cfg, args[1:], out)
	}
	return errUsage
}

type checkResult struct {
	DealID   int64         `json:"deal_id"`
	Title    string        `json:"title,omitempty"`
	Status   string        `json:"status,omitempty"`
	Eligible bool          `json:"eligible"`
	Reason   status.Reason `json:"reason,omitempty"`
	Message  string        `json:"message,omitempty"`
}

func check(ctx context.Context, api pipedrive.API, cfg *config.Config, dealID int64, out io.Writer) error {
	if dealID <= 0 {
		return fmt.Errorf("no deal id: pass -deal or set DEAL_ID_TESTE")
	}

	res := checkResult{DealID: dealID}
	deal, err := api.GetDeal(ctx, dealID)
	switch {
	case errors.Is(err, pipedrive.ErrNotFound):
		res.Reason = status.ReasonNotFound
		res.Message = res.Reason.Message()
		return printJSON(out, res)
	case err != nil:
		return err
	}

	guard := status.NewGuard(cfg.Fields, cfg.Status)
	res.Title = deal.Title
	res.Status = guard.Status(deal).String()
	res.Reason = guard.Eligibility(deal)
	res.Eligible = res.Reason == status.Eligible
	if !res.Eligible {
		res.Message = res.Reason.Message()
	}
	return printJSON(out, res)
}

func webhooks(ctx context.Context, api pipedrive.API, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "list":
		hooks, err := api.ListWebhooks(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, hooks)

	case "register":
		fs := flag.NewFlagSet("register", flag.ContinueOnError)
		target := fs.String("url", cfg.Webhook.SubscriptionURL, "subscription URL")
		if err := fs.Parse(args[1:]); err != nil || *target == "" {
			return errUsage
		}
		subs := pipedrive.Subscriptions(*target, cfg.Webhook.Username, cfg.Webhook.Password)
		hooks, err := pipedrive.Subscribe(ctx, api, subs)
		if perr := printJSON(out, hooks); perr != nil {
			return perr
		}
		return err
	}
	return errUsage
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
