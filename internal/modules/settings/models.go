package settings

// Setting keys persisted in the settings table.
const (
	KeyAPIKey    = "api_key"
	KeyUserID    = "user_id"
	KeyAccountID = "account_id"
)

// AllowedKeys are the only keys UpdateConfiguration accepts.
var AllowedKeys = []string{KeyAPIKey, KeyUserID, KeyAccountID}

// SettingDescriptions documents each key when it is first written.
var SettingDescriptions = map[string]string{
	KeyAPIKey:    "API key required in the X-API-Key header of /api requests",
	KeyUserID:    "Bank client id used by background balance refreshes",
	KeyAccountID: "Account id used by background transaction refreshes",
}

// AppConfiguration is the user managed configuration. Nil means never set.
type AppConfiguration struct {
	APIKey    *string `json:"api_key"`
	UserID    *string `json:"user_id"`
	AccountID *string `json:"account_id"`
}

// Masked returns a copy safe to return over HTTP: the API key is replaced
// by a fixed marker when set.
func (c AppConfiguration) Masked() AppConfiguration {
	if c.APIKey != nil && *c.APIKey != "" {
		masked := "********"
		c.APIKey = &masked
	}
	return c
}

// SettingsUpdate is the body of PUT /api/settings. Absent keys are left unchanged.
type SettingsUpdate map[string]*string
