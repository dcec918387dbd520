package handlers

import "time"

// ShortenRequest is the request body for shortening a URL.
type ShortenRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"url" required:"false"`
	}
}

// ShortenResponse describes the active alias of a URL.
type ShortenResponse struct {
	Body struct {
		URL       string `doc:"The original URL"                        example:"https://example.com/very/long/path" json:"url"`
		Shorten   string `doc:"The full short URL"                      example:"http://localhost:8888/e4_AvF"       json:"shorten"`
		Hash      string `doc:"The alias"                               example:"e4_AvF"                             json:"hash"`
		RemoveURL string `doc:"URL that deactivates the alias"          json:"removeUrl"`
		Created   bool   `doc:"False when the URL already had an alias" json:"created"`
	}
}

// ResolveRequest is the request for resolving an alias.
type ResolveRequest struct {
	Hash   string `doc:"The alias"                  example:"e4_AvF" path:"hash"`
	Accept string `doc:"text/plain, application/json or anything else to redirect" header:"Accept"`
}

// ResolveResponse carries either a redirect or the URL itself.
type ResolveResponse struct {
	Status  int
	Headers struct {
		Location    string `header:"Location"`
		ContentType string `header:"Content-Type"`
	}
	Body []byte
}

// ResolveBody is the JSON representation of a resolved alias.
type ResolveBody struct {
	URL string `json:"url"`
}

// VisitsRequest is the request for listing the visits of an alias.
type VisitsRequest struct {
	Hash string `doc:"The alias" example:"e4_AvF" path:"hash"`
}

// VisitBody is a single logged visit.
type VisitBody struct {
	URL       string    `json:"url"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"createdAt"`
	ClientIP  string    `json:"clientIp,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
}

// VisitsResponse lists the visits of an alias in the order they were recorded.
type VisitsResponse struct {
	Body struct {
		VisitsCount int         `json:"visitsCount"`
		Visits      []VisitBody `json:"visits"`
	}
}

// DeactivateRequest identifies an alias and the token that removes it.
type DeactivateRequest struct {
	Hash        string `doc:"The alias"         path:"hash"`
	RemoveToken string `doc:"The removal token" path:"removeToken"`
}

// DeactivateResponse reports the outcome of a deactivation. A credential pair
// that matches nothing is a success with removed set to false.
type DeactivateResponse struct {
	Body struct {
		Success bool   `json:"success"`
		Removed bool   `json:"removed"`
		Message string `json:"message"`
	}
}
