package routes

import (
	"log"
	"os"

	controller "wanotify/controllers"
	"wanotify/middleware"
	"wanotify/utils"
	"wanotify/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"
)

func SetupAuthRoutes(app *fiber.App) {
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", controller.Logout)
	protectedAuth.Get("/me", controller.GetCurrentUser)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, wa *utils.WhatsAppClient, voice *utils.VoiceClient, dispatcher *worker.DispatchWorker) {
	workshopController := controller.NewWorkshopController(db, log.New(os.Stdout, "WORKSHOP: ", log.LstdFlags))
	groupController := controller.NewGroupController(db, wa, log.New(os.Stdout, "GROUP: ", log.LstdFlags))
	leadController := controller.NewLeadController(db, log.New(os.Stdout, "LEAD: ", log.LstdFlags))
	templateController := controller.NewTemplateController(db, log.New(os.Stdout, "TEMPLATE: ", log.LstdFlags))
	sequenceController := controller.NewSequenceController(db, log.New(os.Stdout, "SEQUENCE: ", log.LstdFlags))
	tagController := controller.NewTagController(db, log.New(os.Stdout, "TAG: ", log.LstdFlags))
	messageController := controller.NewMessageController(db, dispatcher, log.New(os.Stdout, "MESSAGE: ", log.LstdFlags))
	callController := controller.NewCallController(db, voice, log.New(os.Stdout, "CALL: ", log.LstdFlags))

	// Provider webhooks are unauthenticated by necessity
	app.Post("/webhooks/calls", callController.HandleCallWebhook)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Workshop routes
	workshop := api.Group("/workshops")
	workshop.Post("/", workshopController.CreateWorkshop)
	workshop.Get("/", workshopController.GetWorkshops)
	workshop.Get("/:id", workshopController.GetWorkshop)
	workshop.Put("/:id", workshopController.UpdateWorkshop)
	workshop.Delete("/:id", workshopController.DeleteWorkshop)

	// Outreach routes on a workshop
	workshop.Get("/:id/variables", messageController.GetWorkshopVariables)
	workshop.Put("/:id/variables", messageController.SaveWorkshopVariables)
	workshop.Get("/:id/messages", messageController.ListMessages)
	workshop.Get("/:id/progress", messageController.GetProgress)

	// Scheduling and sending are rate limited per user and workshop
	workshop.Post("/:id/run-sequence", middleware.SendRateLimiter(), messageController.RunSequence)
	workshop.Post("/:id/send-now", middleware.SendRateLimiter(), messageController.SendNow)

	api.Post("/messages/:messageId/cancel", messageController.CancelMessage)

	// WebSocket feed for live message and campaign updates
	workshop.Get("/:id/feed", websocket.New(func(c *websocket.Conn) {
		controller.HandleWorkshopFeedWS(c)
	}))

	// Group routes
	group := api.Group("/groups")
	group.Get("/", groupController.GetGroups)
	group.Post("/sync", groupController.SyncGroups)
	group.Post("/community", groupController.CreateCommunity)
	group.Get("/session-status/:sessionId", groupController.GetSessionStatus)
	group.Delete("/:id", middleware.AdminOnly(), groupController.DeleteGroup)

	// Lead routes
	lead := api.Group("/leads")
	lead.Post("/", leadController.CreateLead)
	lead.Get("/", leadController.GetLeads)
	lead.Get("/:id", leadController.GetLead)
	lead.Put("/:id", leadController.UpdateLead)
	lead.Delete("/:id", leadController.DeleteLead)

	// Template routes
	template := api.Group("/templates")
	template.Post("/", templateController.CreateTemplate)
	template.Get("/", templateController.GetTemplates)
	template.Get("/:id", templateController.GetTemplate)
	template.Get("/:id/variables", templateController.GetTemplateVariables)
	template.Put("/:id", templateController.UpdateTemplate)
	template.Delete("/:id", templateController.DeleteTemplate)

	// Sequence routes
	sequence := api.Group("/sequences")
	sequence.Post("/", sequenceController.CreateSequence)
	sequence.Get("/", sequenceController.GetSequences)
	sequence.Get("/:id", sequenceController.GetSequence)
	sequence.Delete("/:id", sequenceController.DeleteSequence)
	sequence.Post("/:id/steps", sequenceController.AddStep)
	sequence.Put("/steps/:stepId", sequenceController.UpdateStep)
	sequence.Delete("/steps/:stepId", sequenceController.DeleteStep)

	// Tag routes
	tag := api.Group("/tags")
	tag.Post("/", tagController.CreateTag)
	tag.Get("/", tagController.GetTags)
	tag.Put("/:id", tagController.UpdateTag)
	tag.Delete("/:id", tagController.DeleteTag)

	// Call campaign routes
	call := api.Group("/call-campaigns")
	call.Post("/", callController.CreateCallCampaign)
	call.Get("/", callController.GetCallCampaigns)
	call.Get("/:id", callController.GetCallCampaign)
	call.Post("/:id/start", callController.StartCallCampaign)
}

func SetupRoutes(app *fiber.App, db *gorm.DB, wa *utils.WhatsAppClient, voice *utils.VoiceClient, dispatcher *worker.DispatchWorker) {
	SetupAuthRoutes(app)
	SetupAPIRoutes(app, db, wa, voice, dispatcher)
}
