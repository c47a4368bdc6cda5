package dto

// PreviewActivateRequest is read from the query string (GET) or the form body (POST).
type PreviewActivateRequest struct {
	Secret   string `query:"secret" form:"secret"`
	Slug     string `query:"slug" form:"slug"`
	Type     string `query:"type" form:"type"`
	Pathname string `query:"sanity-preview-pathname" form:"sanity-preview-pathname"`
	// ClientIP is filled in by the controller for the audit event.
	ClientIP string `query:"-" form:"-"`
}

type PreviewActivateResponse struct {
	RedirectPath string
}

type PreviewDisableResponse struct {
	Success bool `json:"success"`
}

type PreviewStatusResponse struct {
	Preview bool `json:"preview"`
}
