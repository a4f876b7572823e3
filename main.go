package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apihttp "github.com/phunnicutt1/synapse-app-sub001/internal/api/http"
	"github.com/phunnicutt1/synapse-app-sub001/internal/audit"
	"github.com/phunnicutt1/synapse-app-sub001/internal/auth"
	"github.com/phunnicutt1/synapse-app-sub001/internal/config"
	"github.com/phunnicutt1/synapse-app-sub001/internal/cxalloy"
	eqapp "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/application"
	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	eqmemory "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/infrastructure/memory"
	eqpostgres "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/infrastructure/postgres"
	eqhttp "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/interfaces/http"
	"github.com/phunnicutt1/synapse-app-sub001/internal/eventing"
	eventingrepo "github.com/phunnicutt1/synapse-app-sub001/internal/eventing/infrastructure/postgres"
	mapapp "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/application"
	mappings "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/domain"
	mapmemory "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/infrastructure/memory"
	mappostgres "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/infrastructure/postgres"
	maphttp "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/interfaces/http"
	"github.com/phunnicutt1/synapse-app-sub001/internal/observability/metrics"
	"github.com/phunnicutt1/synapse-app-sub001/internal/reports"
	"github.com/phunnicutt1/synapse-app-sub001/internal/signatures/analytics"
	sigapp "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/application"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
	sigmemory "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/infrastructure/memory"
	sigpostgres "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/infrastructure/postgres"
	sighttp "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/interfaces/http"
	"github.com/phunnicutt1/synapse-app-sub001/internal/signatures/library"
)

// stores groups the persistence backends selected at startup.
type stores struct {
	db         *sql.DB
	equipment  equipment.Repository
	signatures signatures.Repository
	uow        mappings.UnitOfWork
	analytics  signatures.AnalyticsStore
	processed  eventing.ProcessedStore
	audit      audit.Logger
}

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		logger.Fatal(err)
	}

	st, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatalf("store error: %v", err)
	}
	if st.db != nil {
		defer st.db.Close()
	}
	metrics.Init(st.db, logger)

	bus := eventing.NewInMemoryBus()
	tracker, err := analytics.NewTracker(st.analytics, logger)
	if err != nil {
		logger.Fatalf("analytics tracker error: %v", err)
	}
	tracker.Subscribe(bus, st.processed)

	equipmentService, err := eqapp.NewService(st.equipment, eqapp.WithReviewThreshold(cfg.ReviewHighMin))
	if err != nil {
		logger.Fatalf("equipment service error: %v", err)
	}
	registry, err := sigapp.NewRegistry(st.signatures)
	if err != nil {
		logger.Fatalf("signature registry error: %v", err)
	}
	matcher, err := sigapp.NewMatcher(st.signatures)
	if err != nil {
		logger.Fatalf("matcher error: %v", err)
	}
	manager, err := mapapp.NewManager(st.uow,
		mapapp.WithEquipmentLookup(st.equipment),
		mapapp.WithPublisher(bus),
		mapapp.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("mapping manager error: %v", err)
	}

	if cfg.SignatureLibraryPath != "" {
		seedLibrary(context.Background(), registry, cfg.SignatureLibraryPath, logger)
	}

	signatureHandler, err := sighttp.NewHandler(registry, tracker, equipmentService, st.audit)
	if err != nil {
		logger.Fatalf("signature handler error: %v", err)
	}
	mappingHandler, err := maphttp.NewHandler(manager, st.audit)
	if err != nil {
		logger.Fatalf("mapping handler error: %v", err)
	}
	equipmentHandler, err := eqhttp.NewHandler(equipmentService, registry, matcher,
		eqhttp.WithMappingRoutes(mappingHandler, maphttp.Owns),
		eqhttp.WithAuditLogger(st.audit),
	)
	if err != nil {
		logger.Fatalf("equipment handler error: %v", err)
	}
	reportBuilder, err := reports.NewBuilder(st.equipment, matcher, cfg.ReviewHighMin)
	if err != nil {
		logger.Fatalf("report builder error: %v", err)
	}
	reportHandler, err := reports.NewHandler(reportBuilder, logger)
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/signatures", signatureHandler)
	mux.Handle("/api/v1/signatures/", signatureHandler)
	mux.Handle("/api/v1/library/import", signatureHandler)
	mux.Handle("/api/v1/equipment", equipmentHandler)
	mux.Handle("/api/v1/equipment/", equipmentHandler)
	mux.Handle("/api/v1/records/", mappingHandler)
	mux.Handle("/api/v1/points/categorize", apihttp.NewCategorizeHandler(cfg.ReviewHighMin))
	mux.Handle("/api/v1/reports/", reportHandler)
	if cfg.CxAlloy.Token != "" {
		client, err := cxalloy.NewClient(cfg.CxAlloy.BaseURL, cfg.CxAlloy.Token)
		if err != nil {
			logger.Fatalf("cxalloy client error: %v", err)
		}
		recordsHandler, err := apihttp.NewRecordsHandler(client, cfg.CxAlloy.ProjectID, logger)
		if err != nil {
			logger.Fatalf("records handler error: %v", err)
		}
		mux.Handle("/api/v1/records", recordsHandler)
	} else {
		logger.Printf("CXALLOY_TOKEN not set; /api/v1/records disabled")
	}
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", apihttp.Health)

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: apihttp.LoggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func openStores(cfg config.Config, logger *log.Logger) (*stores, error) {
	if cfg.DatabaseURL == "" {
		logger.Printf("DATABASE_URL not set; using in-memory stores")
		return memoryStores(cfg)
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	uow, err := mappostgres.NewUnitOfWork(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &stores{
		db:         db,
		equipment:  eqpostgres.NewRepository(db),
		signatures: sigpostgres.NewRepository(db),
		uow:        uow,
		analytics:  sigpostgres.NewAnalyticsStore(db),
		processed:  eventingrepo.NewProcessedStore(db),
		audit:      audit.NewRepository(db),
	}, nil
}

func memoryStores(cfg config.Config) (*stores, error) {
	equipmentRepo := eqmemory.NewRepository()
	if cfg.EquipmentSeedPath != "" {
		seeded, err := eqmemory.LoadFile(cfg.EquipmentSeedPath)
		if err != nil {
			return nil, err
		}
		equipmentRepo = seeded
	}
	sigRepo := sigmemory.NewRepository()
	uow, err := mapmemory.NewUnitOfWork(sigRepo, mapmemory.NewStore())
	if err != nil {
		return nil, err
	}
	return &stores{
		equipment:  equipmentRepo,
		signatures: sigRepo,
		uow:        uow,
		analytics:  analytics.NewMemoryStore(),
		processed:  eventing.NewMemoryProcessedStore(),
		audit:      audit.NewMemoryLog(),
	}, nil
}

func seedLibrary(ctx context.Context, registry *sigapp.Registry, path string, logger *log.Logger) {
	drafts, err := library.LoadFile(path)
	if err != nil {
		logger.Fatalf("signature library error: %v", err)
	}
	result, err := library.Import(ctx, registry, drafts)
	if err != nil {
		logger.Fatalf("signature library import error: %v", err)
	}
	logger.Printf("signature library %s: created=%d skipped=%d", path, len(result.Created), len(result.Skipped))
}
