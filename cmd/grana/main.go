package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"grana/internal/domain/money"
	"grana/internal/domain/report"
	"grana/internal/domain/transaction"
	"grana/internal/infrastructure/firebase"
	"grana/internal/infrastructure/firestore"
	"grana/internal/infrastructure/pdf"
	"grana/internal/session"
	"grana/internal/shared/config"
	"grana/internal/shared/logger"
	"grana/internal/shared/messages"
	"grana/internal/shared/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	var (
		uid       = flag.String("user", "", "Firebase UID to sign in as")
		idToken   = flag.String("token", "", "Firebase ID token to sign in with (alternative to -user)")
		month     = flag.Int("month", 0, "filter: month 1-12 (0 = all)")
		year      = flag.Int("year", 0, "filter: year (0 = all)")
		typ       = flag.String("type", "", "filter: income or expense (empty = both)")
		exportDir = flag.String("export", "", "write a PDF report to this directory after the first snapshot")
		watch     = flag.Bool("watch", true, "keep watching for snapshot updates until interrupted")
		addDesc   = flag.String("add", "", "record a transaction with this description before watching")
		addValue  = flag.Float64("value", 0, "value for -add")
		addType   = flag.String("add-type", transaction.TypeExpense, "type for -add")
		addCat    = flag.String("category", "", "category for -add")
		addDate   = flag.String("date", "", "date for -add (YYYY-MM-DD, default today)")
		deleteID  = flag.String("delete", "", "delete this transaction after the first snapshot")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	appLog := logger.New(cfg.Log.Level)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
			Log:          appLog,
		})
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				appLog.Error().Err(err).Msg("telemetry shutdown")
			}
		}()
	}

	texts, err := messages.Load()
	if err != nil {
		return err
	}

	store, err := firestore.New(ctx, cfg.Firebase.ProjectID, cfg.Firebase.AppID, cfg.Firebase.CredentialsFile, appLog)
	if err != nil {
		return err
	}
	defer store.Close()

	provider, err := firebase.NewProvider(ctx, cfg.Firebase.CredentialsFile, store.UserName)
	if err != nil {
		return err
	}

	identity, err := resolveIdentity(ctx, provider, *uid, *idToken)
	if err != nil {
		return err
	}

	filter := transaction.FilterState{Month: *month, Year: *year, Type: *typ}
	updates := make(chan int, 1)
	sess := session.New(store, appLog, func(n int) {
		select {
		case updates <- n:
		default:
		}
	})

	sess.SignIn(ctx, identity)
	defer sess.SignOut()

	if *addDesc != "" {
		params, err := addParams(*addDesc, *addValue, *addType, *addCat, *addDate)
		if err != nil {
			return err
		}
		if _, err := sess.Add(ctx, params); err != nil {
			failure := texts.Error("save_failed")
			appLog.Error().Err(err).Str("title", failure.Title).Msg(failure.Body)
			return err
		}
		notice := texts.Notice("transaction_added")
		appLog.Info().Str("title", notice.Title).Msg(notice.Body)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-updates:
			printOverview(sess, filter, texts, appLog)

			if *deleteID != "" {
				deleteOnce(ctx, sess, *deleteID, texts, appLog)
				*deleteID = ""
			}
			if *exportDir != "" {
				if err := exportReport(sess, filter, *exportDir, texts, appLog); err != nil {
					return err
				}
				*exportDir = ""
			}
			if !*watch {
				return nil
			}
		}
	}
}

func resolveIdentity(ctx context.Context, provider *firebase.Provider, uid, idToken string) (session.Identity, error) {
	switch {
	case idToken != "":
		return provider.VerifyToken(ctx, idToken)
	case uid != "":
		return provider.IdentityByUID(ctx, uid)
	default:
		return session.Identity{}, fmt.Errorf("either -user or -token is required")
	}
}

func addParams(desc string, value float64, typ, category, date string) (transaction.AddParams, error) {
	when := time.Now()
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return transaction.AddParams{}, fmt.Errorf("invalid -date: %w", err)
		}
		when = parsed
	}
	return transaction.AddParams{
		Date:        when,
		Description: desc,
		Value:       value,
		Type:        typ,
		Category:    category,
	}, nil
}

func printOverview(sess *session.Session, filter transaction.FilterState, texts *messages.Messages, appLog zerolog.Logger) {
	summary := sess.Summary(filter)

	appLog.Info().
		Str("receitas", money.FormatBRL(summary.TotalIncome)).
		Str("despesas", money.FormatBRL(summary.TotalExpense)).
		Str("saldo", money.FormatBRL(summary.NetBalance)).
		Msg("resumo")

	for _, c := range summary.Categories {
		appLog.Info().
			Str("categoria", c.Name).
			Str("total", money.FormatBRL(c.Amount)).
			Float64("percentual", c.Percent).
			Msg("gastos por categoria")
	}

	appLog.Info().Msg(texts.Insight(sess.Insight(filter).String()))

	for _, t := range sess.Recent(filter) {
		appLog.Info().
			Str("id", t.ID).
			Str("data", t.Date.Format("02/01/2006")).
			Str("descricao", t.Description).
			Str("valor", money.FormatBRL(t.Value)).
			Str("tipo", t.Type).
			Msg("atividade recente")
	}
}

func deleteOnce(ctx context.Context, sess *session.Session, txID string, texts *messages.Messages, appLog zerolog.Logger) {
	err := sess.Delete(ctx, txID, time.Now())
	switch {
	case err == nil:
		notice := texts.Notice("transaction_deleted")
		appLog.Info().Str("title", notice.Title).Msg(notice.Body)
	case errors.Is(err, transaction.ErrDeleteWindowExpired):
		failure := texts.Error("delete_expired")
		appLog.Warn().Str("title", failure.Title).Msg(failure.Body)
	case errors.Is(err, transaction.ErrNotFound):
		failure := texts.Error("not_found")
		appLog.Warn().Str("id", txID).Str("title", failure.Title).Msg(failure.Body)
	default:
		failure := texts.Error("delete_failed")
		appLog.Error().Err(err).Str("title", failure.Title).Msg(failure.Body)
	}
}

func exportReport(sess *session.Session, filter transaction.FilterState, dir string, texts *messages.Messages, appLog zerolog.Logger) error {
	doc, err := sess.Export(filter)
	if err != nil {
		if errors.Is(err, report.ErrNoTransactions) {
			failure := texts.Error("nothing_to_export")
			appLog.Warn().Str("title", failure.Title).Msg(failure.Body)
			return nil
		}
		return err
	}

	path := filepath.Join(dir, doc.FileName())
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer out.Close()

	if err := (pdf.Renderer{}).Render(doc, out); err != nil {
		return err
	}

	notice := texts.Notice("report_generated")
	appLog.Info().Str("file", path).Str("title", notice.Title).Msg(notice.Body)
	return nil
}
