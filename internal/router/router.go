package router

import (
	"database/sql"
	"net/http"
	"time"

	_ "pet-records/docs"
	blobmem "pet-records/internal/adapters/blob/memory"
	dedupmem "pet-records/internal/adapters/dedup/memory"
	"pet-records/internal/adapters/email/logsender"
	mem "pet-records/internal/adapters/storage/memory"
	pg "pet-records/internal/adapters/storage/postgres"
	"pet-records/internal/domain/documents"
	"pet-records/internal/domain/health"
	"pet-records/internal/domain/notify"
	"pet-records/internal/domain/pets"
	"pet-records/internal/domain/preferences"
	"pet-records/internal/domain/referrals"
	"pet-records/internal/domain/reminders"
	"pet-records/internal/middleware"
	"pet-records/internal/outbox"
	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/metrics"
	"pet-records/internal/ports/auth"
	"pet-records/internal/ports/blob"
	"pet-records/internal/ports/capabilities"
	"pet-records/internal/ports/dedup"
	"pet-records/internal/ports/email"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Logger       logger.Logger
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Adapters opcionales; nil => implementación en memoria / log.
	Blobs        blob.Store
	Sender       email.Sender
	Outbox       outbox.Store
	Dedup        dedup.Guard
	Capabilities capabilities.CapabilitiesResolver // nil => todo permitido

	DedupTTL      time.Duration
	JobToken      string // vacío => /jobs/* responde 503
	CORSOrigins   []string
	ContactRate   int // requests por ContactWindow e IP
	ContactWindow time.Duration

	Documents documents.Options
	Notify    notify.Config
}

// Services agrupa los servicios de dominio ya cableados. cmd los reusa para los
// workers y los comandos one-shot.
type Services struct {
	Pets        *pets.Service
	Reminders   *reminders.Service
	Documents   *documents.Service
	Health      *health.Service
	Preferences *preferences.Service
	Referrals   *referrals.Service
	Notify      *notify.Service

	Outbox    outbox.Store
	EmailLogs notify.LogRepository
	Sender    email.Sender
}

// NewServices arma repos y servicios. Registra los hooks de borrado de mascotas.
func NewServices(opts Options) *Services {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	var (
		petRepo      pets.Repository
		reminderRepo reminders.Repository
		documentRepo documents.Repository
		healthRepo   health.Repository
		prefsRepo    preferences.Repository
		referralRepo referrals.Repository
		emailLogRepo notify.LogRepository
	)

	if db := opts.DB; db != nil {
		petRepo = pg.NewPetsRepo(db)
		reminderRepo = pg.NewRemindersRepo(db)
		documentRepo = pg.NewDocumentsRepo(db)
		healthRepo = pg.NewHealthRepo(db)
		prefsRepo = pg.NewPreferencesRepo(db)
		referralRepo = pg.NewReferralsRepo(db)
		emailLogRepo = pg.NewEmailLogsRepo(db)
	} else {
		petRepo = mem.NewPetRepo()
		reminderRepo = mem.NewReminderRepo()
		documentRepo = mem.NewDocumentRepo()
		healthRepo = mem.NewHealthRepo()
		prefsRepo = mem.NewPreferencesRepo()
		referralRepo = mem.NewReferralRepo()
		emailLogRepo = mem.NewEmailLogRepo()
	}

	blobs := opts.Blobs
	if blobs == nil {
		blobs = blobmem.New()
	}
	sender := opts.Sender
	if sender == nil {
		sender = logsender.New(log)
	}
	queue := opts.Outbox
	if queue == nil {
		queue = mem.NewOutboxStore()
	}

	// Services por módulo
	petsSvc := pets.NewService(petRepo)
	remindersSvc := reminders.NewService(reminderRepo, petsSvc)
	documentsSvc := documents.NewService(documentRepo, petsSvc, blobs, opts.Documents)
	healthSvc := health.NewService(healthRepo, petsSvc)
	prefsSvc := preferences.NewService(prefsRepo)

	petsSvc.OnDelete(healthSvc.DeleteByPet)
	petsSvc.OnDelete(remindersSvc.DetachPet)
	petsSvc.OnDelete(documentsSvc.DetachPet)

	notifySvc := notify.NewService(notify.Deps{
		Sender:       sender,
		Outbox:       queue,
		Logs:         emailLogRepo,
		Documents:    documentsSvc,
		Reminders:    remindersSvc,
		Preferences:  prefsSvc,
		Pets:         petsSvc,
		Capabilities: opts.Capabilities,
		Logger:       log,
	}, opts.Notify)

	return &Services{
		Pets:        petsSvc,
		Reminders:   remindersSvc,
		Documents:   documentsSvc,
		Health:      healthSvc,
		Preferences: prefsSvc,
		Referrals:   referrals.NewService(referralRepo),
		Notify:      notifySvc,
		Outbox:      queue,
		EmailLogs:   emailLogRepo,
		Sender:      sender,
	}
}

func NewRouter(opts Options) http.Handler {
	return Handler(NewServices(opts), opts)
}

// Handler monta middlewares y rutas sobre servicios ya construidos.
func Handler(s *Services, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover)
	r.Use(cors.Handler(corsOptions(opts.CORSOrigins)))
	r.Use(metrics.Middleware)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	guard := opts.Dedup
	if guard == nil {
		guard = dedupmem.New(time.Minute)
	}
	ttl := opts.DedupTTL
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	dedupe := middleware.Dedup(guard, ttl)

	contactRate, contactWindow := opts.ContactRate, opts.ContactWindow
	if contactRate <= 0 {
		contactRate = 5
	}
	if contactWindow <= 0 {
		contactWindow = time.Minute
	}

	// Rutas por módulo
	pets.RegisterRoutes(r, s.Pets, dedupe)
	health.RegisterRoutes(r, s.Health)
	reminders.RegisterRoutes(r, s.Reminders, dedupe)
	documents.RegisterRoutes(r, s.Documents, dedupe, notify.ShareEmailRoute(s.Notify, dedupe))
	preferences.RegisterRoutes(r, s.Preferences)
	referrals.RegisterRoutes(r, s.Referrals, dedupe)
	notify.RegisterRoutes(r, s.Notify, httprate.LimitByIP(contactRate, contactWindow), opts.JobToken, dedupe)

	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Job-Token", "X-Debug-User-ID", "X-Debug-User-Email"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}
