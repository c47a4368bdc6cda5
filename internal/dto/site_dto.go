package dto

import "time"

type SiteNavItem struct {
	Id    string `json:"id"`
	Label string `json:"label"`
}

type SiteSettingsResponse struct {
	Loaded        bool          `json:"loaded"`
	SiteName      string        `json:"site_name"`
	HeaderTitle   string        `json:"header_title"`
	FooterTitle   string        `json:"footer_title"`
	GeneralLabel  string        `json:"general_label"`
	BusinessLabel string        `json:"business_label"`
	GeneralEmail  string        `json:"general_email"`
	Address       string        `json:"address"`
	AddressLink   string        `json:"address_link"`
	SiteNav       []SiteNavItem `json:"site_nav"`
	RefreshedAt   *time.Time    `json:"refreshed_at"`
}
