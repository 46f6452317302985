package capabilities

import "context"

// Feature identifica una capacidad del plan del usuario.
type Feature string

const (
	FeatureDocumentShareEmail Feature = "documents:share_email"
)

type CapabilityCheck struct {
	UserID  string
	Feature Feature
}

type CapabilitiesResolver interface {
	HasFeature(ctx context.Context, in CapabilityCheck) (bool, error)
}
