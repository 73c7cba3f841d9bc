// Package sender projects queued messages into transport-specific payloads
// and delivers them. The service set is closed (email, sms, chat); each
// service owns a payload shape and an unrecognized service is a hard failure
// rather than a best-effort guess.
package sender
