// Command ticketctl projects change-set logs offline and mints bearer
// tokens for the ticket API.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/spec-kit/ticket-ledger/internal/auth"
	"github.com/spec-kit/ticket-ledger/internal/config"
	"github.com/spec-kit/ticket-ledger/internal/domain"
	"github.com/spec-kit/ticket-ledger/internal/integrity"
	"github.com/spec-kit/ticket-ledger/internal/report"
	"github.com/spec-kit/ticket-ledger/internal/wire"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "token" {
		return runToken(args[1:], stdout, stderr)
	}
	return runProject(args, stdin, stdout, stderr)
}

type projectOptions struct {
	file         string
	ticketID     string
	timeline     bool
	hash         bool
	csv          bool
	algorithm    string
	key          string
	reportConfig string
}

func runProject(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var opts projectOptions
	flagSet := pflag.NewFlagSet("ticketctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.file, "file", "f", "", `JSONL change-set log, "-" for stdin`)
	flagSet.StringVar(&opts.ticketID, "ticket-id", "", "ticket id (default: ticket_id of the first record); other tickets are skipped")
	flagSet.BoolVar(&opts.timeline, "timeline", false, "print the status timeline")
	flagSet.BoolVar(&opts.hash, "hash", false, "print the integrity hash")
	flagSet.BoolVar(&opts.csv, "csv", false, "print a CSV report row")
	flagSet.StringVar(&opts.algorithm, "algorithm", string(integrity.AlgorithmBLAKE3), "hash algorithm: blake3 or blake2b")
	flagSet.StringVar(&opts.key, "key", os.Getenv("INTEGRITY_KEY"), "integrity secret")
	flagSet.StringVar(&opts.reportConfig, "report-config", os.Getenv("REPORT_CONFIG_PATH"), "YAML report settings")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if opts.file == "" {
		return errors.New("--file is required")
	}

	ticket, err := loadTicket(opts, stdin)
	if err != nil {
		return err
	}

	switch {
	case opts.hash:
		hasher, err := integrity.NewHasher(opts.algorithm, opts.key)
		if err != nil {
			return err
		}
		digest, err := ticket.IntegrityHash(hasher.Hash)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, digest)
		return err
	case opts.timeline:
		for _, entry := range ticket.StatusHistory() {
			if _, err := fmt.Fprintf(stdout, "%s\t%s\n", entry.Timestamp.Format(time.RFC3339), entry.Status); err != nil {
				return err
			}
		}
		return nil
	case opts.csv:
		cfg, err := report.LoadConfig(opts.reportConfig)
		if err != nil {
			return err
		}
		return report.NewWriter(cfg, nil).Write(stdout, []domain.Projection{ticket.Projection()})
	default:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(wire.FromProjection(ticket.Projection()))
	}
}

func loadTicket(opts projectOptions, stdin io.Reader) (*domain.Ticket, error) {
	in := stdin
	if opts.file != "-" {
		f, err := os.Open(opts.file)
		if err != nil {
			return nil, fmt.Errorf("open change-set log: %w", err)
		}
		defer f.Close()
		in = f
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read change-set log: %w", err)
	}
	ticketID := opts.ticketID
	if ticketID == "" {
		ticketID = firstTicketID(raw)
	}
	log, err := wire.ReadLog(bytes.NewReader(raw), ticketID)
	if err != nil {
		return nil, err
	}
	return domain.NewTicket(ticketID, log)
}

// firstTicketID returns the ticket_id of the first record that names one.
func firstTicketID(raw []byte) string {
	for _, line := range bytes.Split(raw, []byte("\n")) {
		var record struct {
			TicketID string `json:"ticket_id"`
		}
		if json.Unmarshal(bytes.TrimSpace(line), &record) == nil && record.TicketID != "" {
			return record.TicketID
		}
	}
	return ""
}

func runToken(args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	var (
		subject string
		role    string
	)
	flagSet := pflag.NewFlagSet("ticketctl token", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&subject, "subject", "", "user id recorded as change-set author")
	flagSet.StringVar(&role, "role", string(auth.RoleReporter), "reporter or agent")
	flagSet.StringVar(&cfg.Auth.JWTSecret, "secret", cfg.Auth.JWTSecret, "signing secret")
	flagSet.StringVar(&cfg.Auth.Issuer, "issuer", cfg.Auth.Issuer, "token issuer")
	flagSet.IntVar(&cfg.Auth.AccessTokenTTLMinutes, "ttl-minutes", cfg.Auth.AccessTokenTTLMinutes, "token lifetime")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return errors.New("--subject is required")
	}
	if !auth.Role(role).Valid() {
		return fmt.Errorf("unknown role %q", role)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTLMinutes)
	token, expires, err := tokens.GenerateToken(subject, auth.Role(role))
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "expires %s\n", expires.Format(time.RFC3339))
	_, err = fmt.Fprintln(stdout, token)
	return err
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `ticketctl projects a JSONL change-set log into a ticket view.

Usage:
  ticketctl --file log.jsonl [--ticket-id ID] [--timeline | --hash | --csv]
  ticketctl token --subject USER [--role reporter|agent]

Flags:
%s`, flagSet.FlagUsages())
}
