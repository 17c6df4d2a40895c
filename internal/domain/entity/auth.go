package entity

type AuthStatus struct {
	URL              string   `json:"url"`
	RequiresLogin    bool     `json:"requires_login"`
	IsLoginPage      bool     `json:"is_login_page"`
	HasEmailField    bool     `json:"has_email_field"`
	HasPasswordField bool     `json:"has_password_field"`
	OAuthProviders   []string `json:"oauth_providers,omitempty"`
}
