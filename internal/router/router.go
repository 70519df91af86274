package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unclebandit/outreach-backend/internal/controller"
	"github.com/unclebandit/outreach-backend/internal/handler"
	"github.com/unclebandit/outreach-backend/internal/middleware"
)

type Deps struct {
	JWTSecret string

	Health       *handler.HealthHandler
	Campaigns    *controller.CampaignController
	CampaignView *handler.CampaignHandler
	Templates    *controller.TemplateController
	Recipients   *controller.RecipientController
	EmailSetting *controller.EmailSettingController
	Assist       *controller.AssistController
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", d.Health.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// No request timeout: send and activate run the whole dispatch inline.
		r.Use(middleware.Auth(d.JWTSecret, handler.WriteError))

		r.Get("/recipients", d.Recipients.List)

		// Template routes
		r.Get("/templates", d.Templates.List)
		r.Post("/templates", d.Templates.Create)
		r.Get("/templates/{id}", d.Templates.Get)
		r.Put("/templates/{id}", d.Templates.Update)
		r.Delete("/templates/{id}", d.Templates.Delete)
		r.Post("/templates/{id}/activate", d.Templates.Activate)
		r.Post("/templates/{id}/pause", d.Templates.Pause)
		r.Post("/templates/{id}/preview", d.Templates.Preview)

		// Campaign routes
		r.Get("/campaigns", d.Campaigns.ListCampaigns)
		r.Post("/campaigns", d.Campaigns.CreateCampaign)
		r.Get("/campaigns/{id}", d.CampaignView.GetCampaignHandlerWithStats)
		r.Delete("/campaigns/{id}", d.Campaigns.DeleteCampaign)
		r.Get("/campaigns/{id}/deliveries", d.CampaignView.ListDeliveriesHandler)
		r.Post("/campaigns/{id}/send", d.Campaigns.SendCampaign)

		r.Get("/email-settings", d.EmailSetting.List)
		r.Post("/email-settings", d.EmailSetting.Create)
		r.Get("/email-settings/default", d.EmailSetting.Default)
		r.Put("/email-settings/{id}", d.EmailSetting.Update)
		r.Delete("/email-settings/{id}", d.EmailSetting.Delete)
		r.Post("/email-settings/{id}/default", d.EmailSetting.SetDefault)

		r.Post("/assist", d.Assist.Generate)
	})

	return r
}
