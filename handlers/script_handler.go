package handlers

import (
	"net/http"

	"github.com/Dosada05/snake-arena/middleware"
	"github.com/Dosada05/snake-arena/services"
)

type ScriptHandler struct {
	scriptService services.ScriptService
}

func NewScriptHandler(scriptService services.ScriptService) *ScriptHandler {
	return &ScriptHandler{scriptService: scriptService}
}

func (h *ScriptHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.ScriptInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	script, err := h.scriptService.Create(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"script": script}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScriptHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	scripts, err := h.scriptService.ListByOwner(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scripts": scripts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScriptHandler) Get(w http.ResponseWriter, r *http.Request) {
	scriptID, err := idParam(r, "scriptID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	script, err := h.scriptService.GetByID(r.Context(), scriptID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"script": script}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScriptHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	scriptID, err := idParam(r, "scriptID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ScriptInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	script, err := h.scriptService.Update(r.Context(), userID, scriptID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"script": script}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScriptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	scriptID, err := idParam(r, "scriptID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.scriptService.Delete(r.Context(), userID, scriptID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
