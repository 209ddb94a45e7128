// Package integration provides end-to-end tests that run the checker against
// the live Google Slides API.
//
// Integration tests are skipped by default unless the INTEGRATION_TEST
// environment variable is set:
//
//	INTEGRATION_TEST=1 go test -v ./internal/integration/...
//
// # Required Environment Variables
//
//   - INTEGRATION_TEST: Set to "1" to enable integration tests
//   - GOOGLE_CLIENT_ID: OAuth2 desktop client ID
//   - GOOGLE_CLIENT_SECRET: OAuth2 client secret
//   - GOOGLE_REFRESH_TOKEN: Refresh token granted the presentations.readonly scope
//   - TEST_PRESENTATION_ID: Presentation the account can read
//
// The tests never modify presentations. No consent flow is run: the refresh
// token stands in for a stored credential.
package integration
