package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"parkeo/internal/api"
	"parkeo/internal/auth"
	"parkeo/internal/repository"
	"parkeo/internal/service"
)

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := database.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	slotRepo := repository.NewSlotRepository(database)
	vehicleRepo := repository.NewVehicleRepository(database)
	reservationRepo := repository.NewReservationRepository(database)
	userRepo := repository.NewUserRepository(database)

	notifier := service.NewEmailNotifier()
	engine := service.NewAllocationService(slotRepo, reservationRepo, vehicleRepo, userRepo, notifier)
	slotSvc := service.NewSlotService(slotRepo)
	vehicleSvc := service.NewVehicleService(vehicleRepo, reservationRepo)
	authSvc := service.NewAuthService(userRepo, jwtSecret)
	jobSvc := service.NewJobService(engine)

	if err := authSvc.EnsureAdmin(os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		log.Fatalf("Failed to ensure admin account: %v", err)
	}

	authHandler := api.NewAuthHandler(authSvc)
	vehicleHandler := api.NewVehicleHandler(vehicleSvc)
	reservationHandler := api.NewReservationHandler(engine, slotSvc)
	adminHandler := api.NewAdminHandler(engine, slotSvc)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")

	// Authenticated user endpoints
	user := r.PathPrefix("/api").Subrouter()
	user.Use(auth.Middleware(jwtSecret))
	user.HandleFunc("/vehicles", vehicleHandler.CreateVehicle).Methods("POST")
	user.HandleFunc("/vehicles", vehicleHandler.ListVehicles).Methods("GET")
	user.HandleFunc("/vehicles/{id}", vehicleHandler.GetVehicle).Methods("GET")
	user.HandleFunc("/vehicles/{id}", vehicleHandler.UpdateVehicle).Methods("PUT")
	user.HandleFunc("/vehicles/{id}", vehicleHandler.DeleteVehicle).Methods("DELETE")
	user.HandleFunc("/reservations", reservationHandler.CreateReservation).Methods("POST")
	user.HandleFunc("/reservations", reservationHandler.ListReservations).Methods("GET")
	user.HandleFunc("/reservations/{id}", reservationHandler.GetReservation).Methods("GET")
	user.HandleFunc("/reservations/{id}", reservationHandler.CancelReservation).Methods("DELETE")
	user.HandleFunc("/slots/available", reservationHandler.AvailableSlots).Methods("GET")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.Middleware(jwtSecret), auth.AdminOnly)
	admin.HandleFunc("/reservations", adminHandler.ListReservations).Methods("GET")
	admin.HandleFunc("/reservations/{id}/approve", adminHandler.ApproveReservation).Methods("POST")
	admin.HandleFunc("/reservations/{id}/reject", adminHandler.RejectReservation).Methods("POST")
	admin.HandleFunc("/reservations/{id}/assign/{slotId}", adminHandler.AssignSlot).Methods("POST")
	admin.HandleFunc("/slots", adminHandler.ListSlots).Methods("GET")
	admin.HandleFunc("/slots", adminHandler.CreateSlot).Methods("POST")
	admin.HandleFunc("/slots/bulk", adminHandler.BulkCreateSlots).Methods("POST")
	admin.HandleFunc("/slots/{id}", adminHandler.UpdateSlot).Methods("PUT")
	admin.HandleFunc("/slots/{id}", adminHandler.DeleteSlot).Methods("DELETE")

	c := cron.New()
	c.AddFunc("@every 1m", jobSvc.ExpireDueReservations)
	c.Start()
	defer c.Stop()

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handlers.LoggingHandler(os.Stdout, cors(r))))
}
