package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/pipeline-crm/internal/infra/http/handlers"
	"github.com/xavierca1/pipeline-crm/internal/infra/http/middleware"
)

type routerDeps struct {
	CORSOrigins []string
	Session     *middleware.SessionAuth
	Admin       middleware.AdminChecker

	Health   *handlers.HealthHandler
	Ingest   *handlers.IngestHandler
	Profile  *handlers.ProfileHandler
	Pipeline *handlers.PipelineHandler
	Kanban   *handlers.KanbanHandler
	Lead     *handlers.LeadHandler
	Task     *handlers.TaskHandler
	AdminH   *handlers.AdminHandler
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Api-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", d.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/n8n/ingest-lead", d.Ingest.Handle)
	r.Get("/auth/logout", d.Profile.Logout)

	r.Route("/api", func(r chi.Router) {
		r.Use(d.Session.Handler)

		r.Get("/me", d.Profile.Me)
		r.Patch("/me", d.Profile.Update)

		r.Route("/pipelines", func(r chi.Router) {
			r.Get("/", d.Pipeline.List)
			r.Post("/", d.Pipeline.Create)
			r.Patch("/{id}", d.Pipeline.Update)
			r.Delete("/{id}", d.Pipeline.Archive)
			r.Get("/{id}/board", d.Kanban.Board)
			r.Post("/{id}/board/moves", d.Kanban.Move)
			r.Post("/{id}/stages", d.Kanban.AddStage)
			r.Patch("/{id}/stages/{stageID}", d.Kanban.RenameStage)
			r.Delete("/{id}/stages/{stageID}", d.Kanban.DeleteStage)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", d.Lead.List)
			r.Post("/create", d.Lead.Create)
			r.Patch("/update", d.Lead.Update)
			r.Get("/{id}", d.Lead.Get)
			r.Delete("/{id}", d.Lead.Delete)
			r.Post("/{id}/notes", d.Lead.AddNote)
			r.Post("/{id}/tags", d.Lead.AddTag)
			r.Delete("/{id}/tags/{tag}", d.Lead.RemoveTag)
			r.Put("/{id}/assignee", d.Lead.ChangeAssignee)
			r.Put("/{id}/outcome", d.Lead.SetOutcome)
			r.Get("/{id}/tasks", d.Task.ListForLead)
			r.Post("/{id}/tasks", d.Task.Create)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", d.Task.ListMine)
			r.Patch("/{id}", d.Task.Update)
			r.Delete("/{id}", d.Task.Delete)
			r.Post("/{id}/toggle", d.Task.Toggle)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.Admin))
			r.Get("/users", d.AdminH.ListUsers)
			r.Post("/create-user", d.AdminH.CreateUser)
			r.Post("/delete-user", d.AdminH.DeleteUser)
			r.Post("/reset-password", d.AdminH.ResetPassword)
			r.Post("/users/{id}/toggle-admin", d.AdminH.ToggleAdmin)
			r.Post("/users/{id}/toggle-active", d.AdminH.ToggleActive)
			r.Put("/users/{id}/pipelines", d.AdminH.SetPipelineAccess)
		})
	})

	return r
}
