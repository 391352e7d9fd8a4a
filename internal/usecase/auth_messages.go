package usecase

import "fmt"

// AuthEvent is the kind of authentication event being recorded.
type AuthEvent string

const (
	AuthLogin              AuthEvent = "login"
	AuthLogout             AuthEvent = "logout"
	AuthRegister           AuthEvent = "register"
	AuthFailedLogin        AuthEvent = "failed_login"
	AuthPasswordChange     AuthEvent = "password_change"
	AuthPasswordReset      AuthEvent = "password_reset"
	AuthAccountLocked      AuthEvent = "account_locked"
	AuthSuspiciousActivity AuthEvent = "suspicious_activity"
	AuthTokenExpired       AuthEvent = "token_expired"
	AuthUnauthorizedAccess AuthEvent = "unauthorized_access"
)

// IsWarning reports whether the event is recorded at warning level.
func (e AuthEvent) IsWarning() bool {
	switch e {
	case AuthFailedLogin, AuthSuspiciousActivity, AuthAccountLocked:
		return true
	}
	return false
}

// authMessage renders the message for an auth event.
func authMessage(event AuthEvent, details map[string]interface{}) string {
	who := detailString(details, "username")
	if who == "" {
		who = detailString(details, "email")
	}

	switch event {
	case AuthLogin:
		return "User logged in: " + who
	case AuthLogout:
		return "User logged out: " + who
	case AuthRegister:
		return "New user registered: " + who
	case AuthFailedLogin:
		return "Failed login attempt: " + who
	case AuthPasswordChange:
		return "Password changed: " + who
	case AuthPasswordReset:
		return "Password reset requested: " + who
	case AuthAccountLocked:
		return "Account locked due to multiple failed attempts: " + who
	case AuthSuspiciousActivity:
		return "Suspicious activity detected: " + detailString(details, "activity")
	case AuthTokenExpired:
		name := detailString(details, "username")
		if name == "" {
			name = "unknown"
		}
		return "Authentication token expired: " + name
	case AuthUnauthorizedAccess:
		return "Unauthorized access attempt to: " + detailString(details, "resource")
	default:
		return fmt.Sprintf("Authentication event: %s", event)
	}
}

func detailString(details map[string]interface{}, key string) string {
	v, ok := details[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
