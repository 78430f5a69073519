package http

import (
	"net/http"
	"reflect"

	"github.com/go-chi/render"
)

// respond writes the success envelope. Slices also report their length.
func respond(w http.ResponseWriter, r *http.Request, data any) {
	body := map[string]interface{}{
		"status": "success",
		"data":   data,
	}
	if v := reflect.ValueOf(data); v.Kind() == reflect.Slice {
		body["count"] = v.Len()
	}
	render.JSON(w, r, body)
}
