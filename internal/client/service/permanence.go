package service

import "registrar/internal/client/models"

// IsCurrentClientPermanent reports whether the current client is a durable
// identity anchor. A desktop install is always permanent, whatever the
// record's type says.
func (s *Service) IsCurrentClientPermanent() (bool, error) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		return false, models.NewClientError(models.KindClientNotSet)
	}
	if s.env.IsDesktop() {
		return true, nil
	}
	return current.IsPermanent(), nil
}
