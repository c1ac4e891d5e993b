package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"duedesk/internal/api"
	"duedesk/internal/config"
	"duedesk/internal/manager"
	"duedesk/internal/view"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Runner struct {
	options Options
	logger  *zap.Logger
}

func NewRunner(cfg config.Config, logger *zap.Logger) *Runner {
	logger = logger.Named("cli")
	opts := Options{
		APIBaseURL: cfg.APIBaseURL,
		APIToken:   cfg.APIToken,
		View:       cfg.DefaultView,
		Timeout:    cfg.Timeout,
		LogFile:    cfg.LogFile,
		Debug:      cfg.Debug,
	}

	return &Runner{
		options: opts,
		logger:  logger,
	}
}

func (r *Runner) Execute() error {
	return runCLI(&r.options, r.logger)
}

func runCLI(opts *Options, logger *zap.Logger) error {
	var timeoutSeconds int

	fs := flag.NewFlagSet("duedesk", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [command]\n", fs.Name())
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.APIBaseURL, "base-url", opts.APIBaseURL, "API base URL (API_BASE_URL)")
	fs.StringVar(&opts.APIToken, "token", opts.APIToken, "API bearer token (API_TOKEN)")
	fs.StringVar(&opts.View, "view", opts.View, "Report view: all, today, week, month, year")
	fs.BoolVar(&opts.JSON, "json", false, "Output JSON format")
	fs.BoolVar(&opts.Debug, "debug", opts.Debug, "Enable debug logging")
	fs.StringVar(&opts.LogFile, "log-file", opts.LogFile, "Log file path")
	fs.IntVar(&timeoutSeconds, "timeout", int(opts.Timeout.Seconds()), "Timeout in seconds")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			fs.Usage()
			return nil
		}
		return err
	}

	if timeoutSeconds > 0 {
		opts.Timeout = time.Duration(timeoutSeconds) * time.Second
	}
	opts.Command = strings.TrimSpace(strings.Join(fs.Args(), " "))

	currentView, ok := manager.FindReportView(opts.View)
	if !ok {
		currentView = manager.ReportViews()[0]
	}

	apiClient := newAPIClientFromOptions(opts, logger)
	mgr := manager.New(apiClient, currentView.Path, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	s := &session{
		opts:    opts,
		logger:  logger,
		mgr:     mgr,
		reader:  bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
		current: currentView,
	}

	if err := mgr.Load(ctx); err != nil {
		// Degrade to an empty, still interactive view.
		fmt.Fprintf(s.out, "Warning: %s\n", friendlyAPIError(err))
	}

	if opts.Command != "" {
		return s.dispatch(ctx, opts.Command)
	}
	return s.repl(ctx)
}

func newAPIClientFromOptions(opts *Options, logger *zap.Logger) *api.Client {
	cfg := config.Config{
		APIBaseURL: opts.APIBaseURL,
		APIToken:   opts.APIToken,
		Timeout:    opts.Timeout,
	}
	return api.NewClient(cfg, logger)
}

type session struct {
	opts    *Options
	logger  *zap.Logger
	mgr     *manager.Manager
	reader  *bufio.Scanner
	out     io.Writer
	current manager.ReportView
}

func (s *session) repl(ctx context.Context) error {
	fmt.Fprintln(s.out, "duedesk — sales due administration (type 'help', 'exit' to quit)")
	s.list()

	for {
		fmt.Fprint(s.out, "> ")
		if !s.reader.Scan() {
			return s.reader.Err()
		}

		line := strings.TrimSpace(s.reader.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := s.dispatch(ctx, line); err != nil {
			return err
		}
	}
}

func (s *session) dispatch(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	command := strings.ToLower(fields[0])
	args := fields[1:]

	s.logger.Info("command received",
		zap.String("command", command),
		zap.Strings("args", args),
		zap.String("view", s.current.Name),
	)

	switch command {
	case "help":
		writeHelp(s.out)
	case "list", "ls":
		s.list()
	case "stats":
		s.stats()
	case "accounts":
		s.accounts()
	case "filter":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "Usage: filter all|due|paid")
			return nil
		}
		filter, err := view.ParseFilter(args[0])
		if err != nil {
			fmt.Fprintln(s.out, err.Error())
			return nil
		}
		s.mgr.SetFilter(filter)
		s.list()
	case "view":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "Usage: view all|today|week|month|year")
			return nil
		}
		rv, ok := manager.FindReportView(args[0])
		if !ok {
			fmt.Fprintf(s.out, "Unknown view %q.\n", args[0])
			return nil
		}
		s.current = rv
		if err := s.mgr.SetSource(ctx, rv.Path); err != nil {
			fmt.Fprintf(s.out, "Warning: %s\n", friendlyAPIError(err))
		}
		s.list()
	case "refresh":
		if err := s.mgr.Load(ctx); err != nil {
			fmt.Fprintf(s.out, "Warning: %s\n", friendlyAPIError(err))
		}
		s.list()
	case "expand":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "Usage: expand <row># or <memo no>")
			return nil
		}
		rec, err := s.resolveRecord(args[0])
		if err != nil {
			fmt.Fprintln(s.out, err.Error())
			return nil
		}
		s.mgr.ToggleExpand(rec.ID)
		s.list()
	case "collect":
		s.collect(ctx, args)
	case "delete", "del":
		s.deleteMemo(ctx, args)
	default:
		fmt.Fprintf(s.out, "Unknown command %q — type 'help'.\n", command)
	}

	return nil
}

func (s *session) list() {
	dv := s.mgr.View()
	if s.opts.JSON {
		writeJSONList(s.out, s.current, s.mgr.Filter(), dv)
		return
	}
	writeSalesTable(s.out, s.current.Title, s.mgr.Filter(), dv, s.mgr.ExpandedID())
}

func (s *session) stats() {
	records := s.mgr.Records()
	dv := view.Derive(records, view.FilterDue)
	dueCount := len(dv.Visible)
	if s.opts.JSON {
		writeJSONStats(s.out, s.current, dv.Totals, len(records), dueCount)
		return
	}
	writeStats(s.out, s.current.Title, dv.Totals, len(records), dueCount)
}

func (s *session) accounts() {
	accounts := s.mgr.Accounts()
	if s.opts.JSON {
		writeJSON(s.out, map[string]any{"accounts": accounts})
		return
	}
	writeAccounts(s.out, accounts)
}

func (s *session) collect(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: collect <row># [amount] [account#]")
		return
	}

	rec, err := s.resolveRecord(args[0])
	if err != nil {
		fmt.Fprintln(s.out, err.Error())
		return
	}

	dialog, err := s.mgr.BeginCollect(rec.ID)
	if err != nil {
		if errors.Is(err, manager.ErrNothingDue) {
			fmt.Fprintf(s.out, "Memo %s is already fully paid.\n", rec.MemoNo)
			return
		}
		fmt.Fprintln(s.out, err.Error())
		return
	}

	if len(args) >= 3 {
		s.collectOneShot(ctx, dialog, args[1], args[2])
		return
	}
	s.collectInteractive(ctx, dialog)
}

func (s *session) collectOneShot(ctx context.Context, dialog *manager.PaymentDialog, amountArg, accountArg string) {
	amount, err := decimal.NewFromString(amountArg)
	if err != nil {
		fmt.Fprintf(s.out, "Not a valid amount: %q.\n", amountArg)
		s.mgr.CancelDialog()
		return
	}
	dialog.SetAmount(amount)

	account, err := s.resolveAccount(accountArg)
	if err != nil {
		fmt.Fprintln(s.out, err.Error())
		s.mgr.CancelDialog()
		return
	}
	dialog.SetAccount(account.ID)

	s.submitPayment(ctx, account)
}

func (s *session) collectInteractive(ctx context.Context, dialog *manager.PaymentDialog) {
	rec := dialog.Record
	fmt.Fprintf(s.out, "Collecting due for memo %s (%s): due %s\n",
		rec.MemoNo, customerName(rec), money(rec.Due()))

	for {
		raw := s.prompt(fmt.Sprintf("amount (due %s, blank cancels): ", money(rec.Due())))
		if raw == "" {
			s.mgr.CancelDialog()
			fmt.Fprintln(s.out, "Cancelled.")
			return
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			fmt.Fprintf(s.out, "Not a valid amount: %q.\n", raw)
			continue
		}
		dialog.SetAmount(amount)
		fmt.Fprintf(s.out, "remaining after payment: %s\n", money(dialog.Remaining()))

		accounts := s.mgr.Accounts()
		if len(accounts) == 0 {
			fmt.Fprintln(s.out, "No payment accounts available; run 'refresh' and try again.")
			s.mgr.CancelDialog()
			return
		}
		writeAccounts(s.out, accounts)

		raw = s.prompt("account # (blank cancels): ")
		if raw == "" {
			s.mgr.CancelDialog()
			fmt.Fprintln(s.out, "Cancelled.")
			return
		}
		account, err := s.resolveAccount(raw)
		if err != nil {
			fmt.Fprintln(s.out, err.Error())
			continue
		}
		dialog.SetAccount(account.ID)

		if s.submitPayment(ctx, account) {
			return
		}
		// Validation failure: the dialog stays open, re-prompt.
	}
}

// submitPayment reports whether the dialog was resolved (success or a
// server-side rejection the user cannot fix by re-entering values).
func (s *session) submitPayment(ctx context.Context, account api.PaymentAccount) bool {
	updated, err := s.mgr.SubmitPayment(ctx)
	if err != nil {
		var vErr *manager.ValidationError
		if errors.As(err, &vErr) {
			fmt.Fprintf(s.out, "Invalid: %s\n", vErr.Error())
			return false
		}
		fmt.Fprintln(s.out, friendlyAPIError(err))
		s.mgr.CancelDialog()
		return true
	}

	if s.opts.JSON {
		writeJSON(s.out, map[string]any{"collected": updated})
		return true
	}
	fmt.Fprintf(s.out, "Payment recorded into %s. Memo %s is now %s (due %s).\n",
		accountLabel(account), updated.MemoNo, statusBadge(updated), money(updated.Due()))
	return true
}

func (s *session) deleteMemo(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: delete <row># or <memo no>")
		return
	}

	rec, err := s.resolveRecord(args[0])
	if err != nil {
		fmt.Fprintln(s.out, err.Error())
		return
	}

	answer := s.prompt(fmt.Sprintf("Delete memo %s (%s, due %s)? [y/N]: ",
		rec.MemoNo, customerName(rec), money(rec.Due())))
	switch strings.ToLower(answer) {
	case "y", "yes":
	default:
		fmt.Fprintln(s.out, "Aborted.")
		return
	}

	if err := s.mgr.Delete(ctx, rec.ID); err != nil {
		fmt.Fprintln(s.out, friendlyAPIError(err))
		return
	}

	if s.opts.JSON {
		writeJSON(s.out, map[string]any{"deleted": rec.ID})
		return
	}
	fmt.Fprintf(s.out, "Memo %s deleted.\n", rec.MemoNo)
}

func (s *session) prompt(label string) string {
	fmt.Fprint(s.out, label)
	if !s.reader.Scan() {
		return ""
	}
	return strings.TrimSpace(s.reader.Text())
}

// resolveRecord accepts a 1-based row number into the visible list or
// a memo number / record id.
func (s *session) resolveRecord(token string) (api.SaleRecord, error) {
	visible := s.mgr.View().Visible
	if n, err := strconv.Atoi(token); err == nil {
		if n < 1 || n > len(visible) {
			return api.SaleRecord{}, fmt.Errorf("row %d is out of range (1-%d)", n, len(visible))
		}
		return visible[n-1], nil
	}

	for _, rec := range s.mgr.Records() {
		if strings.EqualFold(rec.MemoNo, token) || rec.ID == token {
			return rec, nil
		}
	}
	return api.SaleRecord{}, fmt.Errorf("no memo matching %q", token)
}

func (s *session) resolveAccount(token string) (api.PaymentAccount, error) {
	accounts := s.mgr.Accounts()
	if n, err := strconv.Atoi(token); err == nil {
		if n < 1 || n > len(accounts) {
			return api.PaymentAccount{}, fmt.Errorf("account %d is out of range (1-%d)", n, len(accounts))
		}
		return accounts[n-1], nil
	}

	for _, acc := range accounts {
		if acc.ID == token {
			return acc, nil
		}
	}
	return api.PaymentAccount{}, fmt.Errorf("no payment account matching %q", token)
}

func friendlyAPIError(err error) string {
	switch {
	case errors.Is(err, api.ErrMissingBaseURL):
		return "No API base URL configured: set --base-url or API_BASE_URL."
	case errors.Is(err, api.ErrMissingToken):
		return "No access: set --token or API_TOKEN."
	case errors.Is(err, api.ErrUnauthorized):
		return "No access: the token is invalid or lacks permission."
	case errors.Is(err, api.ErrNotFound):
		return "The record no longer exists on the server."
	default:
		if err == nil {
			return ""
		}
		return err.Error()
	}
}
