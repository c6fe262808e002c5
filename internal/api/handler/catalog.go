package handler

import (
	"net/http"

	"github.com/mcoot/civlobby/internal/api/response"
	"github.com/mcoot/civlobby/internal/model"
)

// Civilizations handles GET /api/v1/catalog/civilizations
func Civilizations(w http.ResponseWriter, _ *http.Request) {
	civs := model.Civilizations()
	out := make([]string, len(civs))
	for i, c := range civs {
		out[i] = string(c)
	}
	response.JSON(w, http.StatusOK, response.Civilizations{Civilizations: out})
}

// Colors handles GET /api/v1/catalog/colors
func Colors(w http.ResponseWriter, _ *http.Request) {
	colors := model.Colors()
	out := make([]string, len(colors))
	for i, c := range colors {
		out[i] = string(c)
	}
	response.JSON(w, http.StatusOK, response.Colors{Colors: out})
}
