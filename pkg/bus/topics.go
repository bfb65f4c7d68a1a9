package bus

import "strings"

// Routing keys. Each resource domain has a fixed req/res pair: requests are
// drained via a shared queue by the owning service's replicas, responses go
// to every caller's exclusive queue and are filtered by correlation id.
const (
	BookingsReq = "bookings.req"
	BookingsRes = "bookings.res"

	AppointmentsReq = "appointments.req"
	AppointmentsRes = "appointments.res"

	ClinicsReq = "clinics.req"
	ClinicsRes = "clinics.res"

	DentistsReq = "dentists.req"
	DentistsRes = "dentists.res"

	UsersReq = "users.req"
	UsersRes = "users.res"

	NotificationsReq = "notifications.req"
	NotificationsRes = "notifications.res"

	// WebSocket push: the bare key broadcasts, the users.<id> suffix
	// addresses the one connection bound to that user.
	NotificationsWS           = "notifications.ws"
	notificationsWSUserPrefix = "notifications.ws.users."
)

func WSUserKey(userID string) string {
	return notificationsWSUserPrefix + userID
}

// WSUserFromKey extracts the addressed user from a ws routing key. It
// reports false for the broadcast form.
func WSUserFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, notificationsWSUserPrefix) {
		return "", false
	}
	user := strings.TrimPrefix(key, notificationsWSUserPrefix)
	if user == "" || strings.Contains(user, ".") {
		return "", false
	}
	return user, true
}
