package router

import (
	"context"
	"database/sql"
	"net/http"
	"os"

	emergencyclient "care-coordination/internal/adapters/emergency"
	"care-coordination/internal/adapters/push/fcm"
	"care-coordination/internal/adapters/push/logonly"
	mem "care-coordination/internal/adapters/storage/memory"
	pg "care-coordination/internal/adapters/storage/postgres"
	"care-coordination/internal/domain/appointments"
	"care-coordination/internal/domain/emergency"
	"care-coordination/internal/domain/medicines"
	"care-coordination/internal/domain/notifications"
	"care-coordination/internal/domain/prescriptions"
	"care-coordination/internal/domain/ratings"
	"care-coordination/internal/domain/stock"
	"care-coordination/internal/domain/users"
	"care-coordination/internal/middleware"
	"care-coordination/internal/notify"
	"care-coordination/internal/platform/logger"
	"care-coordination/internal/ports/auth"
	"care-coordination/internal/ports/push"
	"care-coordination/internal/reminder"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	TokenIssuer  users.TokenIssuer

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: gateway de push. Si es nil se elige por env
	// (FCM_SERVER_KEY presente → FCM; si no, log-only).
	PushGateway push.Gateway

	// Opcional: base del servicio externo de emergencias. Vacío lee
	// EMERGENCY_MED_URL; sin URL el módulo responde "no configurado".
	EmergencyBaseURL string

	Log logger.Logger
}

// Runtime agrupa los loops de fondo: el scheduler de recordatorios de
// medicamentos y el chequeo periódico de stock. main los arranca después
// de construir el router y los frena en el shutdown.
type Runtime struct {
	Scheduler *reminder.Scheduler
	Checker   *stock.Checker
}

func (rt *Runtime) Start(ctx context.Context) {
	rt.Scheduler.Start(ctx)
	rt.Checker.Start(ctx)
}

func (rt *Runtime) Stop() {
	rt.Scheduler.Stop()
	rt.Checker.Stop()
}

func NewRouter(opts Options) (http.Handler, *Runtime) {
	log := opts.Log
	if log == nil {
		log = logger.Nop{}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var (
		usersRepo         users.Repository
		medicinesRepo     medicines.Repository
		appointmentsRepo  appointments.Repository
		notificationsRepo notifications.Repository
		stockRepo         stock.Repository
		prescriptionsRepo prescriptions.Repository
		ratingsRepo       ratings.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Error("postgres open failed, falling back to memory", map[string]any{"error": err.Error()})
			}
		}
	}

	if db != nil {
		usersRepo = pg.NewUsersRepo(db)
		medicinesRepo = pg.NewMedicinesRepo(db)
		appointmentsRepo = pg.NewAppointmentsRepo(db)
		notificationsRepo = pg.NewNotificationsRepo(db)
		stockRepo = pg.NewStockRepo(db)
		prescriptionsRepo = pg.NewPrescriptionsRepo(db)
		ratingsRepo = pg.NewRatingsRepo(db)
	} else {
		usersRepo = mem.NewUsersRepo()
		medicinesRepo = mem.NewMedicinesRepo()
		appointmentsRepo = mem.NewAppointmentsRepo()
		notificationsRepo = mem.NewNotificationsRepo()
		stockRepo = mem.NewStockRepo()
		prescriptionsRepo = mem.NewPrescriptionsRepo()
		ratingsRepo = mem.NewRatingsRepo()
	}

	gateway := opts.PushGateway
	if gateway == nil {
		if key := os.Getenv("FCM_SERVER_KEY"); key != "" {
			gateway = fcm.NewClient(fcm.Config{ServerKey: key})
		} else {
			gateway = logonly.New(log)
		}
	}

	// Services por módulo
	usersSvc := users.NewService(usersRepo)
	notificationsSvc := notifications.NewService(notificationsRepo)
	notifier := notify.NewNotifier(usersSvc, gateway, notificationsSvc, log)

	medicinesSvc := medicines.NewService(medicinesRepo)

	dispatcher := reminder.NewDispatcher(usersSvc, gateway, notificationsSvc, log)
	scheduler := reminder.NewScheduler(reminder.Config{
		Store:      medicinesRepo,
		Dispatcher: dispatcher,
		Log:        log,
	})
	medicinesSvc.SetRescheduler(scheduler)

	appointmentsSvc := appointments.NewService(appointmentsRepo, usersSvc, notifier)
	stockSvc := stock.NewService(stockRepo, usersSvc, notifier)
	checker := stock.NewChecker(stockSvc, log, 0)
	prescriptionsSvc := prescriptions.NewService(prescriptionsRepo, usersSvc, appointmentsRepo, notifier)
	ratingsSvc := ratings.NewService(ratingsRepo, usersSvc)

	emergencyBase := opts.EmergencyBaseURL
	if emergencyBase == "" {
		emergencyBase = os.Getenv("EMERGENCY_MED_URL")
	}
	emergencyGateway := emergencyclient.NewClient(emergencyclient.Config{BaseURL: emergencyBase})
	emergencySvc := emergency.NewService(emergencyGateway, usersSvc, log)
	usersSvc.SetOnboarder(emergencySvc)

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc, opts.TokenIssuer)
	medicines.RegisterRoutes(r, medicinesSvc)
	appointments.RegisterRoutes(r, appointmentsSvc)
	notifications.RegisterRoutes(r, notificationsSvc)
	stock.RegisterRoutes(r, stockSvc)
	prescriptions.RegisterRoutes(r, prescriptionsSvc)
	ratings.RegisterRoutes(r, ratingsSvc)
	emergency.RegisterRoutes(r, emergencySvc)

	return r, &Runtime{Scheduler: scheduler, Checker: checker}
}
