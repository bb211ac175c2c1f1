// Package config loads and validates the sync daemon's environment-variable
// configuration.
//
// Every knob named in the external-interfaces contract is read through
// Load, which optionally sources a .env file via github.com/joho/godotenv
// before falling back to os.Getenv. Validate reports every missing
// credential or malformed value in one pass rather than failing on the
// first one, so a misconfigured deployment gets a complete error report
// instead of a whack-a-mole sequence of restarts.
package config
