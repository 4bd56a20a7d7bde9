package google

import (
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// CalendarProvider is the provider name token rows are stored under.
const CalendarProvider = "google_calendar"

// CalendarScopes are the Google Calendar scopes requested at consent time.
var CalendarScopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/calendar.events",
}

// OAuthConfig returns the oauth2 config used for the calendar consent flow,
// code exchange and token refresh.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       CalendarScopes,
		Endpoint:     googleoauth.Endpoint,
	}
}

// ConsentURL builds the Google consent page URL for one user. The user id
// rides in the state parameter so the callback knows whose tokens arrived.
// offline + consent forces Google to return a refresh token.
func ConsentURL(cfg *oauth2.Config, userID string) string {
	return cfg.AuthCodeURL(userID, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}
