package workflow

import "snapsell/internal/pricing"

// LocalEstimator adapts the in-process pricing estimator, which cannot
// fail, to the PriceEstimator boundary. The boundary keeps an error return
// so a remote pricing backend can slot in behind the same interface.
type LocalEstimator struct {
	Estimator *pricing.Estimator
}

// Estimate implements PriceEstimator.
func (l LocalEstimator) Estimate(itemType string, keywords []string) (pricing.Estimate, error) {
	return l.Estimator.Estimate(itemType, keywords), nil
}
