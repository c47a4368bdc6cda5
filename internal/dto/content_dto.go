package dto

// PageResponse is what the front end's data-fetching composable receives.
// Data is null when the page could not be loaded; the page renders its
// fallback state in that case.
type PageResponse struct {
	Data    interface{}            `json:"data"`
	Preview bool                   `json:"preview"`
	Query   string                 `json:"query"`
	Params  map[string]interface{} `json:"params"`
}
