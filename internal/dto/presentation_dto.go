package dto

type LocationItem struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

type LocationsResponse struct {
	Locations []LocationItem `json:"locations"`
}
