package controller

import (
	"encoding/json"
	"net/http"

	"github.com/alessisheinman/Disk-Jockey/version"
)

func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (c *Controller) GetVersion(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(version.Get())
}
