// Package suite defines the FitTogether API test cases and their order.
//
// The suite registers a fresh user, logs in, creates and joins a challenge,
// then exercises progress, leaderboard, my-challenges and health warning
// endpoints. Identifiers returned by one case feed the next through the
// session. The first six steps are critical: when one fails the rest of the
// suite cannot run.
package suite
