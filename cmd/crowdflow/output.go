package main

import (
	"encoding/json"
	"io"

	"crowdflow/services"
)

const apiVersion = "1.0.0"

type dataResponse struct {
	APIVersion string      `json:"apiVersion"`
	Data       interface{} `json:"data"`
}

type errorResponse struct {
	APIVersion string    `json:"apiVersion"`
	Error      errorBody `json:"error"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeData(w io.Writer, data interface{}) error {
	return writeJSON(w, dataResponse{APIVersion: apiVersion, Data: data})
}

// writeError hides the cause of internal errors; it only reaches the logs.
func writeError(w io.Writer, err error) error {
	return writeJSON(w, errorResponse{
		APIVersion: apiVersion,
		Error: errorBody{
			Code:    services.KindOf(err).HTTPStatus(),
			Message: services.MessageOf(err),
		},
	})
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
