package dto

// ContentPublishedRequest is the body the CMS webhook posts when a document
// is published, unpublished or deleted.
type ContentPublishedRequest struct {
	Id   string `json:"_id" validate:"required"`
	Type string `json:"_type" validate:"required"`
	Slug string `json:"slug"`
}

// ContentPublishedMessage travels on the in-process bus and over NATS.
type ContentPublishedMessage struct {
	DocumentId   string `json:"document_id"`
	DocumentType string `json:"document_type"`
	Slug         string `json:"slug"`
	Origin       string `json:"origin"`
}

type WebhookResponse struct {
	Accepted bool `json:"accepted"`
}
