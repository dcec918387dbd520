package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers all URL shortener routes.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "shorten-url",
		Method:      http.MethodPost,
		Path:        "/",
		Summary:     "Shorten URL",
		Description: "Returns the active alias of a URL, creating one when none exists.",
		Tags:        []string{"URLs"},
	}, urlHandler.Shorten)

	huma.Register(api, huma.Operation{
		OperationID: "resolve-url",
		Method:      http.MethodGet,
		Path:        "/{hash}",
		Summary:     "Resolve alias",
		Description: "Redirects to the original URL, or returns it as text or JSON depending on Accept.",
		Tags:        []string{"URLs"},
		Responses: map[string]*huma.Response{
			"302": {Description: "Redirect to the original URL"},
		},
	}, urlHandler.Resolve)

	huma.Register(api, huma.Operation{
		OperationID: "list-visits",
		Method:      http.MethodGet,
		Path:        "/{hash}/visits",
		Summary:     "List visits",
		Description: "Lists the recorded visits of an alias in the order they happened.",
		Tags:        []string{"Visits"},
	}, urlHandler.ListVisits)

	huma.Register(api, huma.Operation{
		OperationID: "deactivate-url",
		Method:      http.MethodDelete,
		Path:        "/{hash}/remove/{removeToken}",
		Summary:     "Deactivate alias",
		Description: "Deactivates the alias when both the hash and the removal token match.",
		Tags:        []string{"URLs"},
	}, urlHandler.Deactivate)
}
