package main

import (
	billhandler "tabletreats/internal/bills/handler"
	billservice "tabletreats/internal/bills/service"
	billvalidator "tabletreats/internal/bills/validator"
	healthhandler "tabletreats/internal/health/handler"
	"tabletreats/internal/reservations/cache"
	reservationhandler "tabletreats/internal/reservations/handler"
	reservationrepo "tabletreats/internal/reservations/repository"
	reservationservice "tabletreats/internal/reservations/service"
	reservationvalidator "tabletreats/internal/reservations/validator"
	restauranthandler "tabletreats/internal/restaurants/handler"
	restaurantrepo "tabletreats/internal/restaurants/repository"
	restaurantservice "tabletreats/internal/restaurants/service"
	restaurantvalidator "tabletreats/internal/restaurants/validator"
	"tabletreats/pkg/app"
	"tabletreats/pkg/config"
	"tabletreats/pkg/kafka"

	"github.com/joho/godotenv"
)

const ServiceName = "reservations"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Reservations service")

	serverApp := app.NewApplication(cfg)

	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		var err error
		producer, err = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, ServiceName, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
		}
		serverApp.OnShutdown(func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		})
	}

	events := reservationservice.NewEventPublisher(producer, cfg.Log)
	slotCache := cache.NewSlotCache(cfg.Client.Redis, cfg.SlotCacheTTL, cfg.Log)

	restaurantRepo := restaurantrepo.NewMongoRestaurantRepository(cfg)
	restaurantSvc := restaurantservice.NewRestaurantService(
		restaurantRepo,
		restaurantvalidator.NewRestaurantValidator(cfg.Log),
		slotCache,
		cfg,
	)

	reservationRepo := reservationrepo.NewMongoReservationRepository(cfg)
	reservationSvc := reservationservice.NewReservationService(
		reservationRepo,
		reservationrepo.NewMongoLedgerRepository(cfg),
		reservationrepo.NewMongoSlotLockRepository(cfg),
		restaurantRepo,
		slotCache,
		reservationvalidator.NewReservationValidator(cfg.Log),
		events,
		cfg,
	)

	billSvc := billservice.NewBillService(
		reservationRepo,
		restaurantRepo,
		billvalidator.NewBillValidator(cfg.Log),
		events,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	jwtSecret := []byte(cfg.JWTSecret)
	serverApp.SetApp(
		healthhandler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		restauranthandler.NewRestaurantHandler(restaurantSvc, jwtSecret, cfg.Log),
		reservationhandler.NewReservationHandler(reservationSvc, jwtSecret, cfg.Log),
		billhandler.NewBillHandler(billSvc, jwtSecret, cfg.Log),
	)
	serverApp.Run()
}
