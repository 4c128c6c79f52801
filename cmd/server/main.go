package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/classification/modules/classification/infrastructure/persistence"
	"github.com/iota-uz/classification/modules/classification/presentation/controllers"
	"github.com/iota-uz/classification/modules/classification/services"
	"github.com/iota-uz/classification/pkg/configuration"
	"github.com/iota-uz/classification/pkg/eventbus"
	"github.com/iota-uz/classification/pkg/intl"
	"github.com/iota-uz/classification/pkg/middleware"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	publisher := eventbus.NewEventPublisher(logger)

	axisRepo := persistence.NewCategoryAxisRepository()
	segmentRepo := persistence.NewSegmentRepository()
	assignmentRepo := persistence.NewAssignmentRepository()

	axisService := services.NewCategoryAxisService(axisRepo, publisher)
	segmentService := services.NewSegmentService(segmentRepo, axisRepo, publisher)
	// Existence oracles for the supported entity kinds are registered by
	// the embedding application; a bare server starts with none and
	// rejects upserts with ENTITY_KIND_NOT_SUPPORTED.
	oracles := services.NewOracleRegistry()
	classificationService := services.NewClassificationService(
		axisRepo, segmentRepo, assignmentRepo, segmentService, oracles, publisher,
	)

	router := mux.NewRouter()
	router.Use(
		middleware.RequestLog(logger),
		middleware.ProvidePool(pool),
		middleware.RequireTenant(conf.TenantIDHeader),
		middleware.ProvideActor(conf.ActorHeader),
		middleware.ProvideLocalizer(intl.LoadBundle()),
	)
	controllers.NewClassificationAPIController(axisService, segmentService, classificationService).Register(router)

	server := &http.Server{
		Addr:              conf.SocketAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("address", conf.SocketAddress).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	logger.Info("server stopped")
}
