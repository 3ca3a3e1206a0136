package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/reflections-backend/internal/handlers"
)

// SetupRoutes mounts the API. media may be nil when uploads go to Cloudinary.
func SetupRoutes(r chi.Router, reflections *handlers.ReflectionHandler, media *handlers.MediaHandler) {
	r.Get("/health", handlers.Health)

	// Reflection routes
	r.Post("/api/reflections", reflections.CreateReflection)
	r.Get("/api/reflections", reflections.GetReflections)

	// Locally stored media
	if media != nil {
		r.Get("/media/*", media.ServeMedia)
	}
}
