package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/ai"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/config"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/flow"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/models"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/payment"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/phone"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/store"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/tithi"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/webhook"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/whatsapp"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "TempleBot").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	st, err := store.Open(cfg.DatabaseURL, cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	if err := bootstrapDevAdmin(st, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap dev admin")
	}

	var calendar flow.Calendar
	if tithiSvc, err := tithi.LoadFile(cfg.TithiDataFile); err != nil {
		log.Warn().Err(err).Msg("tithi dataset unavailable, lookups disabled")
	} else {
		calendar = tithiSvc
		log.Info().Str("path", cfg.TithiDataFile).Msg("tithi dataset loaded")
	}

	var payments flow.PaymentLinker
	if pay := payment.New(cfg.RazorpayKeyID, cfg.RazorpayKeySecret); pay.Enabled() {
		payments = pay
	} else {
		log.Warn().Msg("payment provider not configured, paid bookings fall back to manual collection")
	}

	var assistant flow.Assistant
	if cfg.SarvamAPIKey != "" {
		assistant = ai.New(cfg.SarvamAPIKey)
	} else {
		log.Warn().Msg("SARVAM_API_KEY not set, AI fallback disabled")
	}

	engine := flow.New(st, calendar, payments, assistant, cfg.OrgPrefix)

	sender := whatsapp.NewService(&whatsapp.Config{
		Token:         cfg.WhatsAppToken,
		PhoneNumberID: cfg.PhoneNumberID,
		GraphVersion:  cfg.GraphVersion,
	})

	handler := webhook.NewHandler(&webhook.Config{
		VerifyToken:   cfg.VerifyToken,
		AppSecret:     cfg.AppSecret,
		PaymentSecret: cfg.RazorpayWebhookSecret,
	}, st, engine, sender)

	r := mux.NewRouter()
	r.HandleFunc("/", health).Methods(http.MethodGet)
	r.HandleFunc("/webhook", handler.Verify).Methods(http.MethodGet)
	r.HandleFunc("/webhook", handler.Receive).Methods(http.MethodPost)
	r.HandleFunc("/payments/webhook", handler.Payment).Methods(http.MethodPost)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("temple bot listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"alive"}`))
}

// bootstrapDevAdmin provisions the initial dev_admin account from env the
// first time the service starts against an empty database.
func bootstrapDevAdmin(st *store.Store, cfg *config.Config, log zerolog.Logger) error {
	if cfg.DevAdminPhone == "" || cfg.DevAdminKey == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adminPhone := phone.Canonical(cfg.DevAdminPhone)
	existing, err := st.AdminUser(ctx, adminPhone)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	user := &models.AdminUser{
		Phone:           adminPhone,
		Role:            models.RoleDevAdmin,
		PersonalKeyHash: flow.HashKey(cfg.DevAdminKey),
		KeyLastChanged:  time.Now(),
		Active:          true,
	}
	if err := st.CreateAdminUser(ctx, user); err != nil {
		return err
	}
	if err := st.Audit(ctx, adminPhone, models.AuditBootstrap, "role=dev_admin"); err != nil {
		return err
	}
	log.Info().Str("phone", adminPhone).Msg("bootstrapped dev_admin account")
	return nil
}
