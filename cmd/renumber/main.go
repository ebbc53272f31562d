// Command renumber rewrites the numero of every intervention from its
// business creation date, then realigns the sequence counters.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/config"
	"github.com/mamadbah2/repairdesk/internal/domain/numbering"
	"github.com/mamadbah2/repairdesk/internal/repository/mongodb"
	"github.com/mamadbah2/repairdesk/pkg/logger"
)

func main() {
	envFile := flag.String("env", "", "optional .env file")
	dryRun := flag.Bool("dry-run", false, "print the plan without writing")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}

	log := logger.Must(logger.New(cfg.Server.LogLevel)).Named("renumber")
	defer func() { _ = log.Sync() }()

	loc := cfg.Location()
	time.Local = loc

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		log.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() { _ = repo.Close(context.Background()) }()

	if err := run(ctx, repo.Interventions(), repo.Counters(), loc, *dryRun, log); err != nil {
		log.Fatal("renumbering failed", zap.Error(err))
	}
}

type interventionStore interface {
	ListForRenumbering(ctx context.Context) ([]numbering.Record, error)
	SetNumeros(ctx context.Context, numeros map[primitive.ObjectID]string) error
}

type counterStore interface {
	Reset(ctx context.Context, kind numbering.Kind, year int, seq int64) error
}

// run assigns placeholders first so the final numbers never collide with the
// unique index while they are being written.
func run(ctx context.Context, store interventionStore, counters counterStore, loc *time.Location, dryRun bool, log *zap.Logger) error {
	records, err := store.ListForRenumbering(ctx)
	if err != nil {
		return err
	}
	for i := range records {
		records[i].DateCreation = records[i].DateCreation.In(loc)
	}
	plan := numbering.PlanRenumbering(numbering.KindIntervention, records)
	maxSeq := numbering.MaxSeqByYear(plan)
	log.Info("renumbering planned", zap.Int("interventions", len(plan)), zap.Int("years", len(maxSeq)))

	if dryRun {
		for _, a := range plan {
			log.Info("planned", zap.String("id", a.ID.Hex()), zap.String("numero", a.Numero))
		}
		return nil
	}

	temporary := make(map[primitive.ObjectID]string, len(plan))
	final := make(map[primitive.ObjectID]string, len(plan))
	for _, a := range plan {
		temporary[a.ID] = numbering.Temporary(a.ID)
		final[a.ID] = a.Numero
	}

	if err := store.SetNumeros(ctx, temporary); err != nil {
		return err
	}
	log.Info("temporary numbers written")

	if err := store.SetNumeros(ctx, final); err != nil {
		return err
	}
	log.Info("final numbers written")

	for year, seq := range maxSeq {
		if err := counters.Reset(ctx, numbering.KindIntervention, year, seq); err != nil {
			return err
		}
		log.Info("counter reset", zap.Int("year", year), zap.Int64("seq", seq))
	}
	return nil
}
