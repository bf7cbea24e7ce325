// Package shoppingsdk is a client for the MyShoppingHelp service.
//
// A SessionManager owns the user's login: it runs the OAuth2 authorization
// code flow with PKCE against the identity provider, persists the resulting
// session through a secretstore.Store, restores it on the next start and
// refreshes the access token when it goes stale. An APIClient uses the
// manager to sign requests against the shopping list REST API and decodes
// the typed responses.
//
// Typical use:
//
//	sessions, err := shoppingsdk.NewSessionManager(shoppingsdk.Config{
//		ClientID:            "ios-app",
//		RedirectURLProtocol: "myshopping",
//	}, shoppingsdk.WithSecretStore(store))
//	if err != nil {
//		return err
//	}
//	sessions.RestoreSession(ctx)
//
//	if !sessions.IsLoggedIn() {
//		// The presenter opens the URL; the platform hands the redirect to
//		// sessions.ResumeAuthorizationCallback.
//		if _, err := sessions.Login(ctx, presenter); err != nil {
//			return err
//		}
//	}
//
//	client := shoppingsdk.NewAPIClient(sessions)
//	lists, err := client.Lists(ctx)
package shoppingsdk
