package routes

import (
	"fmt"
	"net/http"
)

const privacyPolicyHTML = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Amora Privacy Policy</title>
</head>
<body>
	<h1>Amora Privacy Policy</h1>
	<h2>What we store</h2>
	<p>Your account email, profile details and photos, your approximate location, the people you like, skip or block, your matches, chats and calls history.</p>
	<h2>How location is used</h2>
	<p>Coordinates are only used to compute the distance shown to other members. They are never displayed.</p>
	<h2>Payments</h2>
	<p>Subscriptions are charged by our payment provider. Card details never reach our servers.</p>
	<h2>Notifications</h2>
	<p>Device tokens are kept only to deliver push notifications and are removed when you sign out of a device or delete your account.</p>
	<h2>Deleting your data</h2>
	<p>Deleting your account removes your login, profile and device tokens.</p>
	<p>Questions: <a href="mailto:support@amora.app">support@amora.app</a></p>
</body>
</html>
`

// PrivacyPolicyHandler serves the static privacy policy page.
func PrivacyPolicyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	fmt.Fprint(w, privacyPolicyHTML)
}
