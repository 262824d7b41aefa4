package http

import (
	"net/http"
	"strconv"

	"github.com/snapreviews/snapreviews/internal/service"
	"github.com/snapreviews/snapreviews/pkg/httputil"
	"github.com/snapreviews/snapreviews/pkg/validator"
)

const maxBodyBytes = 1 << 20

// BusinessRequest is the body for creating or updating a business.
type BusinessRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Location    string `json:"location" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"required,notblank,max=5000"`
}

func (req BusinessRequest) input() service.BusinessInput {
	return service.BusinessInput{
		Title:       req.Title,
		Location:    req.Location,
		Description: req.Description,
	}
}

// ReviewRequest is the body for adding a review.
type ReviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Body   string `json:"body" validate:"required,notblank,max=5000"`
}

// decodeBusiness reads a BusinessRequest from a form post or a JSON body.
func decodeBusiness(w http.ResponseWriter, r *http.Request) (BusinessRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req BusinessRequest
	if httputil.IsForm(r) {
		req.Title = r.PostFormValue("title")
		req.Location = r.PostFormValue("location")
		req.Description = r.PostFormValue("description")
		return req, validator.Validate(req)
	}
	return req, validator.DecodeAndValidate(r, &req)
}

// decodeReview reads a ReviewRequest from a form post or a JSON body. A
// non-numeric form rating is treated as missing.
func decodeReview(w http.ResponseWriter, r *http.Request) (ReviewRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req ReviewRequest
	if httputil.IsForm(r) {
		req.Rating, _ = strconv.Atoi(r.PostFormValue("rating"))
		req.Body = r.PostFormValue("body")
		return req, validator.Validate(req)
	}
	return req, validator.DecodeAndValidate(r, &req)
}

// respond finishes a mutation. Form posts are redirected to target with 303;
// other clients get data as JSON with status, or an empty body for 204.
func respond(w http.ResponseWriter, r *http.Request, status int, target string, data any) {
	if httputil.IsForm(r) {
		httputil.SeeOther(w, r, target)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: data})
}
