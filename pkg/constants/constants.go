package constants

const (
	AppName      = "medicenter"
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "MEDICENTER"
)

// NATS subjects. Publishers append the center code as the last token.
const (
	SubjectAppointmentBooked    = "medicenter.appointment.booked"
	SubjectAppointmentCancelled = "medicenter.appointment.cancelled"
)

// Redis key prefixes.
const (
	RedisKeySequence    = "seq:"
	RedisKeyAuthSession = "session:"
	RedisKeySweeperLock = "lock:session_sweeper"
)

// SystemActor is recorded in modification history for unattended changes.
const SystemActor = "system"

const (
	DefaultPhoneRegion  = "IN"
	DefaultPageLimit    = 10
	MaxPageLimit        = 100
	DefaultBookingTries = 3
)
