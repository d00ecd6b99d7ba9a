package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/astromechza/docrelay/pkg/relay"
	"github.com/astromechza/docrelay/pkg/store"
)

type api struct {
	documents *store.Store
	relay     *relay.Relay
}

func writeJSON(writer http.ResponseWriter, status int, v any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(v); err != nil {
		slog.Error("failed to write response", "err", err)
	}
}

func (a *api) listDocuments(writer http.ResponseWriter, request *http.Request) {
	docs, err := a.documents.List(request.Context())
	if err != nil {
		slog.Error("failed to list documents", "err", err)
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(writer, http.StatusOK, docs)
}

func (a *api) createDocument(writer http.ResponseWriter, request *http.Request) {
	var inputs struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(request.Body).Decode(&inputs); err != nil {
		slog.Error("failed to decode body", "err", err)
		writer.WriteHeader(http.StatusBadRequest)
		return
	}
	doc, err := a.documents.Create(request.Context(), inputs.Title)
	if err != nil {
		slog.Error("failed to create document", "err", err)
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(writer, http.StatusOK, doc)
}

func (a *api) getDocument(writer http.ResponseWriter, request *http.Request) {
	doc, err := a.documents.Get(request.Context(), mux.Vars(request)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(writer, http.StatusNotFound, map[string]string{"error": "Document not found"})
			return
		}
		slog.Error("failed to get document", "err", err)
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(writer, http.StatusOK, doc)
}

func (a *api) putDocument(writer http.ResponseWriter, request *http.Request) {
	var inputs struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(request.Body).Decode(&inputs); err != nil {
		slog.Error("failed to decode body", "err", err)
		writer.WriteHeader(http.StatusBadRequest)
		return
	}
	doc, err := a.documents.Update(request.Context(), mux.Vars(request)["id"], inputs.Title, inputs.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(writer, http.StatusNotFound, map[string]string{"error": "Document not found"})
			return
		}
		slog.Error("failed to update document", "err", err)
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(writer, http.StatusOK, doc)
}

func (a *api) getPresence(writer http.ResponseWriter, request *http.Request) {
	writeJSON(writer, http.StatusOK, a.relay.Members(mux.Vars(request)["id"]))
}
