// Package main our entry point.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lechange/lechange/internal"
	"github.com/lechange/lechange/internal/broker"
	"github.com/lechange/lechange/internal/bus"
	"github.com/lechange/lechange/internal/chat"
	"github.com/lechange/lechange/internal/config"
	"github.com/lechange/lechange/internal/database"
	"github.com/lechange/lechange/internal/handler"
	"github.com/lechange/lechange/internal/notify"
	"github.com/lechange/lechange/internal/ratelimiter"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// SSE responses outlive any sane write deadline; per-connection
		// lifetime is bounded by the request context instead.
		WriteTimeout: 0,
		IdleTimeout:  30 * time.Second,
	}

	log.Println("Starting application...")

	// Init NATS. The broker is optional: without NATS_URL the hub runs
	// single-instance with in-process fan-out only.
	var (
		conn      *nats.Conn
		stream    jetstream.Stream
		publisher *broker.Publisher
	)

	if cfg.NATSURL != "" {
		log.Println("Initializing NATS connection...")

		var natsCredentials []nats.Option
		if cfg.NATSCredFile != "" {
			natsCredentials = append(natsCredentials, nats.UserCredentials(cfg.NATSCredFile))
		} else if cfg.NATSUser != "" && cfg.NATSPassword != "" {
			natsCredentials = append(natsCredentials, nats.UserInfo(cfg.NATSUser, cfg.NATSPassword))
		}
		natsCredentials = append(natsCredentials, nats.Timeout(5*time.Second))

		conn, err = nats.Connect(cfg.NATSURL, natsCredentials...)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}

		js, err := jetstream.New(conn)
		if err != nil {
			log.Fatalf("failed to create jetstream instance: %v", err)
		}

		stream, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     broker.StreamName,
			Subjects: []string{broker.SubjectConversations, broker.SubjectNotifications},
			MaxBytes: 1 << 30, // 1GB max storage
		})
		if err != nil {
			log.Fatalf("failed to create/update stream: %v", err)
		}

		publisher = broker.NewPublisher(js)
	} else {
		log.Println("NATS_URL not set; running without a broker")
	}

	// Init DB
	log.Println("Initializing Database connection...")

	dbConn, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("could not connect to the postgresql database: %v", err)
	}

	dbQueries := database.New(dbConn)

	eventBus := bus.New()
	notifySvc := notify.NewService(dbQueries, eventBus, publisher)

	// hub.Run is our central hub that is always listening for client related events.
	hub := chat.NewHub(dbQueries, publisher, notifySvc)
	go hub.Run(ctx, stream)

	// Badge pokes from the other instances land on the local bus.
	if stream != nil {
		go notifySvc.RunBrokerRelay(ctx, stream)
	}

	sweeper := notify.NewSweeper(dbQueries, cfg.RetentionCron)
	go sweeper.Run(ctx)

	// 10 requests per minute per IP on the credential endpoints.
	authLimiter := ratelimiter.NewIPRateLimiter(10, time.Minute, ratelimiter.CleanupOpts{
		TTL:      10 * time.Minute,
		Interval: time.Minute,
	})
	defer authLimiter.Cancel()

	authed := func(next http.Handler) http.Handler {
		return internal.Middleware(next, dbQueries)
	}
	moderator := func(next http.Handler) http.Handler {
		return internal.RequireModerator(next, dbQueries)
	}
	admin := func(next http.Handler) http.Handler {
		return internal.RequireAdmin(next, dbQueries)
	}

	r := chi.NewRouter()

	fs := http.FileServer(http.Dir("static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fs))

	r.Get("/", handler.ServeRoot())
	r.Get("/healthz", handler.ServeHealthz())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/account", func(r chi.Router) {
		r.Get("/login", handler.ServeLoginPage())
		r.Get("/signup", handler.ServeSignupPage())
		r.Method(http.MethodPost, "/login", authLimiter.Middleware(handler.SubmitLoginForm(dbQueries)))
		r.Method(http.MethodPost, "/signup", authLimiter.Middleware(handler.SubmitSignupForm(dbQueries)))
		r.Post("/logout", handler.SubmitLogoutReq(dbQueries))
	})

	r.Group(func(r chi.Router) {
		r.Use(authed)

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", handler.ServeListings(dbQueries))
			r.Post("/", handler.SubmitListing(dbQueries))
			r.Get("/new", handler.ServeListingForm(dbQueries))
			r.Get("/mine", handler.ServeMyListings(dbQueries))
			r.Get("/{listingID}", handler.ServeListingDetail(dbQueries))
			r.Put("/{listingID}", handler.UpdateListing(dbQueries))
			r.Get("/{listingID}/edit", handler.ServeListingForm(dbQueries))
			r.Post("/{listingID}/status", handler.SetListingStatus(dbQueries))
		})

		r.Route("/forum", func(r chi.Router) {
			r.Get("/", handler.ServeForum(dbQueries))
			r.Post("/questions", handler.SubmitQuestion(dbQueries))
			r.Get("/questions/{questionID}", handler.ServeQuestion(dbQueries))
			r.Post("/questions/{questionID}/answers", handler.SubmitAnswer(dbQueries, notifySvc))
			r.Post("/answers/{answerID}/accept", handler.AcceptAnswer(dbQueries))
			r.Post("/votes", handler.SubmitVote(dbQueries))
		})

		r.Get("/conversations", handler.ServeConversations(dbQueries))
		r.Post("/conversations", handler.StartConversation(dbQueries))
		r.Get("/conversations/{conversationID}", handler.ServeChatView(dbQueries))

		// Load chat history on HTTP GET on initial connection before
		// opening the event stream.
		r.Get("/messages", handler.ServeMessages(dbQueries))
		r.Post("/messages", handler.SendMessage(hub, dbQueries))
		r.Get("/sse", handler.StreamSSE(hub, dbQueries))

		r.Get("/notifications", handler.ServeNotifications(dbQueries))
		r.Get("/notifications/unread", handler.ServeUnreadCount(notifySvc))
		r.Get("/notifications/stream", handler.StreamNotifications(eventBus))
		r.Post("/notifications/read", handler.MarkNotificationsRead(notifySvc))

		r.Post("/reports", handler.SubmitReport(dbQueries))
	})

	// Role gates read the user ID that the session middleware puts in the
	// request context, so they always run behind it.
	r.Group(func(r chi.Router) {
		r.Use(authed, moderator)

		r.Get("/admin/reports", handler.ServeReportQueue(dbQueries))
		r.Post("/admin/reports/{reportID}/close", handler.CloseReport(dbQueries, notifySvc))
	})

	r.Group(func(r chi.Router) {
		r.Use(authed, admin)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", handler.ServeAdminUsers(dbQueries))
			r.Post("/users/{userID}/ban", handler.SetUserBan(dbQueries))
			r.Post("/users/{userID}/role", handler.SetUserRole(dbQueries))
			r.Get("/categories", handler.ServeAdminCategories(dbQueries))
			r.Post("/categories", handler.SubmitCategory(dbQueries))
			r.Post("/categories/{categoryID}", handler.RenameCategory(dbQueries))
			r.Delete("/categories/{categoryID}", handler.DeleteCategory(dbQueries))
			r.Get("/settings", handler.ServeAdminSettings(dbQueries))
			r.Post("/settings", handler.SubmitSettings(dbQueries))
		})
	})

	server.Handler = r

	go func() {
		log.Printf("Server starting at 0.0.0.0:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received; shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println(err)
	}

	if conn != nil {
		if err := conn.Drain(); err != nil {
			log.Printf("couldn't drain NATS conn: %+v", err)
		}
	}

	dbConn.Close()

	log.Println("Server stopped")
}
