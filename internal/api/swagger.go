package api

import (
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// registerDocs mounts the interactive API reference at /swagger.
// Deployments that keep the surface machine-only leave it disabled.
func (s *Server) registerDocs() {
	if !s.docsEnabled {
		return
	}
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
