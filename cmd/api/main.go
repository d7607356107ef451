package main

import (
	"log"
	"os"

	_ "pharmacy/api/swagger" // swagger docs
	"pharmacy/internal/database"
	"pharmacy/internal/events"
	"pharmacy/internal/handler"
	"pharmacy/internal/middleware"
	"pharmacy/internal/repository"
	"pharmacy/internal/service"
	"pharmacy/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Pharmacy Management API
// @version         1.0
// @description     Role-based pharmacy backend: medicine catalog, prescription lifecycle with atomic stock reservation, payments, audit trail and reporting.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "pharmacy"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Event bus and WebSocket hub; every domain event is relayed to clients
	bus := events.NewBus()
	wsHub := websocket.NewHub()
	go wsHub.Run()
	wsHub.AttachBus(bus)

	// Repositories
	txManager := repository.NewTransactionManager(db)
	medicineRepo := repository.NewMedicineRepository(db)
	prescriptionRepo := repository.NewPrescriptionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)

	// Services
	auditService := service.NewAuditService(auditRepo)
	medicineService := service.NewMedicineService(medicineRepo, supplierRepo, auditService, txManager, bus)
	prescriptionService := service.NewPrescriptionService(prescriptionRepo, medicineRepo, patientRepo, auditService, txManager, bus)
	paymentService := service.NewPaymentService(paymentRepo, prescriptionRepo, prescriptionService, auditService, txManager, bus)
	userService := service.NewUserService(userRepo, auditService, txManager)
	patientService := service.NewPatientService(patientRepo, auditService, txManager)
	supplierService := service.NewSupplierService(supplierRepo, auditService, txManager)
	reportService := service.NewReportService(db)

	// Handlers
	medicineHandler := handler.NewMedicineHandler(medicineService)
	prescriptionHandler := handler.NewPrescriptionHandler(prescriptionService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	userHandler := handler.NewUserHandler(userService)
	patientHandler := handler.NewPatientHandler(patientService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	auditHandler := handler.NewAuditHandler(auditService)
	reportHandler := handler.NewReportHandler(reportService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API Routing
	userHandler.RegisterRoutes(router.Group(""))
	medicineHandler.RegisterRoutes(router.Group(""))
	prescriptionHandler.RegisterRoutes(router.Group(""))
	paymentHandler.RegisterRoutes(router.Group(""))
	patientHandler.RegisterRoutes(router.Group(""))
	supplierHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
