/*
Package authsdk is the Go client for the tms API, and the home of the wire
types and error body shared with the server.

# SDKClient vs Session

  - SDKClient: unauthenticated calls (health, register, signin, refresh)
  - Session: authenticated calls with automatic token refresh

Typical use:

	client := authsdk.NewSDKClient("https://tms.example.com")

	session, err := client.Signin(ctx, "alice@example.com", password)
	if err != nil {
		return err
	}
	defer session.Logout(ctx)

	task, err := session.CreateTask(ctx, authsdk.CreateTaskRequest{Title: "write docs"})

A Session refreshes its access token shortly before it expires, and once more
if the server answers 401 anyway.

# Errors

Every non-2xx response is returned as *APIError. Compare with errors.Is
against the predefined values, which match on Code:

	if errors.Is(err, authsdk.ErrRefreshTokenInvalid) {
		// sign in again
	}
*/
package authsdk
