package main

import (
	"net/http"
	"time"

	"fleet-dispatch-system/api"
	"fleet-dispatch-system/balancer"
	"fleet-dispatch-system/cache"
	"fleet-dispatch-system/config"
	"fleet-dispatch-system/dispatch"
	"fleet-dispatch-system/geo"
	"fleet-dispatch-system/logger"
	"fleet-dispatch-system/migration"
	"fleet-dispatch-system/routing"
	"fleet-dispatch-system/store"
)

func main() {
	log := logger.New("main")

	if err := config.InitConfig(); err != nil {
		log.Errorf("config: %v", err)
		panic(err)
	}
	cfg := config.Cfg

	// Store backend: memory for pure simulation, postgres when the
	// fleet should survive restarts.
	var fleetStore store.FleetStore
	switch cfg.DB.Driver {
	case "postgres":
		if cfg.DB.Migrate {
			if err := migration.Run(cfg.DB, logger.New("migration")); err != nil {
				log.Errorf("migrations: %v", err)
				panic(err)
			}
		}
		pg, err := store.OpenPostgres(cfg.DB)
		if err != nil {
			log.Errorf("postgres: %v", err)
			panic(err)
		}
		fleetStore = pg
		log.Infof("database connected")
	default:
		fleetStore = store.NewMemoryStore()
		log.Infof("using in-memory store")
	}
	defer fleetStore.Close()

	grid := geo.NewGrid(cfg.Grid.Precision)
	bal := balancer.New(fleetStore, grid, logger.New("balancer"))

	if cfg.Redis.Enabled {
		rdb, err := cache.NewClient(cfg.Redis)
		if err != nil {
			log.Errorf("redis: %v", err)
			panic(err)
		}
		bal.SetPublisher(cache.NewStatsCache(rdb))
		log.Infof("connected to Redis, publishing cell stats")
	}

	engine := dispatch.NewEngine(fleetStore, bal, grid, logger.New("dispatch"))
	generator := dispatch.NewAutoOrderGenerator(engine, dispatch.GeneratorConfig{
		CenterLat:     cfg.Fleet.CenterLat,
		CenterLon:     cfg.Fleet.CenterLon,
		PickupRadiusM: cfg.AutoOrders.PickupRadiusM,
		DestRadiusM:   cfg.AutoOrders.DestRadiusM,
		MinInterval:   time.Duration(cfg.AutoOrders.MinIntervalS) * time.Second,
		MaxInterval:   time.Duration(cfg.AutoOrders.MaxIntervalS) * time.Second,
	}, logger.New("autoorders"))
	defer generator.Stop()

	var router routing.Provider = routing.UnavailableProvider{}
	if cfg.Routing.Provider == "osrm" {
		router = routing.NewOSRMProvider(
			cfg.Routing.BaseURL,
			cfg.Routing.Profile,
			time.Duration(cfg.Routing.TimeoutS)*time.Second,
			logger.New("osrm"),
		)
	}

	handler := &api.Handler{
		Store:     fleetStore,
		Engine:    engine,
		Generator: generator,
		Balancer:  bal,
		Router:    router,
		Grid:      grid,
		Index: geo.NewIndex(grid, geo.Bounds{
			MinX: -90, MinY: -180, MaxX: 90, MaxY: 180,
		}),
		Fleet: cfg.Fleet,
		Log:   logger.New("api"),
	}

	log.Infof("server started on %s", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, handler.RegisterRoutes()); err != nil {
		log.Errorf("server: %v", err)
		panic(err)
	}
}
