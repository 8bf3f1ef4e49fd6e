package http

import (
	"errors"
	"net/http"

	"github.com/akarpov/mediactl/internal/app"
	"github.com/akarpov/mediactl/internal/domain"
	"github.com/gin-gonic/gin"
)

func handleHealth(orch *app.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":             "ok",
			"active_controllers": orch.Media.ControllerCount(),
		})
	}
}

func handleListControllers(orch *app.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"controllers": orch.Media.List(),
			"active":      orch.Media.ControllerCount(),
		})
	}
}

func handleGetController(orch *app.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := domain.ControllerID(c.Param("id"))
		info, ok := orch.Media.Info(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown controller"})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func handleControllerCommand(orch *app.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := domain.ControllerID(c.Param("id"))
		err := orch.Command(id, c.Param("cmd"))
		switch {
		case errors.Is(err, app.ErrUnknownController):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown controller"})
		case err != nil:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			info, _ := orch.Media.Info(id)
			c.JSON(http.StatusOK, info)
		}
	}
}

func handleMainCommand(orch *app.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := orch.CommandMain(c.Param("cmd"))
		switch {
		case errors.Is(err, app.ErrNoMainController):
			c.JSON(http.StatusNotFound, gin.H{"error": "no active controller"})
		case err != nil:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		}
	}
}
