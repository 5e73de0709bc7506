package payment

// TrackingGenerator produces human-facing shipment reference codes.
type TrackingGenerator interface {
	NewTrackingID() string
}
